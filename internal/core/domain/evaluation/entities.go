// Package evaluation provides the domain types for the offline evaluation
// harness: datapoints, jobs, evaluators, and the result tree they produce.
package evaluation

import (
	"context"
	"strconv"
	"time"

	"github.com/orq-ai/evaluatorq/pkg/ulid"
)

// Context is the ambient context type threaded through every engine call.
// Aliased so call sites read the way spec.md names them without importing
// "context" directly in every file.
type Context = context.Context

// Datapoint is one immutable input row under test.
//
// Inputs carries the required, string-keyed input mapping. ExpectedOutput
// and Messages are optional. Extra holds opaque pass-through fields the
// caller supplied on the original record but that the engine itself never
// interprets; they are carried unchanged into the in-memory result tree.
// Extra is not JSON-encoded and the uploader's payload does not include it.
type Datapoint struct {
	Inputs         map[string]any `json:"inputs"`
	ExpectedOutput any            `json:"expectedOutput,omitempty"`
	Messages       []Message      `json:"messages,omitempty"`
	Extra          map[string]any `json:"-"`
}

// Message is one role/content pair in a conversation transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Job is a named, asynchronous-by-convention function under test. Fn
// receives the datapoint and its index in the resolved sequence and
// returns a JSON-serializable output, or an error.
type Job struct {
	Name string
	Fn   func(ctx Context, d Datapoint, rowIndex int) (any, error)
}

// Evaluator is a named scorer. Fn receives the datapoint and the job's
// (already-normalized) output and must never observe another evaluator's
// score.
type Evaluator struct {
	Name string
	Fn   func(ctx Context, d Datapoint, output any) (any, error)
}

// JobRegistry preserves job registration order; spec.md I2 depends on
// this ordering being stable across the whole run.
type JobRegistry struct {
	jobs []Job
}

// NewJobRegistry builds a registry from named jobs, synthesizing a name
// for any entry whose Name is empty.
func NewJobRegistry(jobs ...Job) *JobRegistry {
	r := &JobRegistry{jobs: make([]Job, len(jobs))}
	for i, j := range jobs {
		if j.Name == "" {
			j.Name = syntheticName("job", i)
		}
		r.jobs[i] = j
	}
	return r
}

// Len returns the number of registered jobs.
func (r *JobRegistry) Len() int { return len(r.jobs) }

// At returns the job at position i in registration order.
func (r *JobRegistry) At(i int) Job { return r.jobs[i] }

// All returns the registered jobs in registration order.
func (r *JobRegistry) All() []Job { return r.jobs }

// EvaluatorRegistry preserves evaluator registration order; spec.md I3
// depends on this ordering.
type EvaluatorRegistry struct {
	evaluators []Evaluator
}

// NewEvaluatorRegistry builds a registry from named evaluators,
// synthesizing a name for any entry whose Name is empty.
func NewEvaluatorRegistry(evaluators ...Evaluator) *EvaluatorRegistry {
	r := &EvaluatorRegistry{evaluators: make([]Evaluator, len(evaluators))}
	for i, e := range evaluators {
		if e.Name == "" {
			e.Name = syntheticName("evaluator", i)
		}
		r.evaluators[i] = e
	}
	return r
}

// Len returns the number of registered evaluators.
func (r *EvaluatorRegistry) Len() int { return len(r.evaluators) }

// At returns the evaluator at position i in registration order.
func (r *EvaluatorRegistry) At(i int) Evaluator { return r.evaluators[i] }

// All returns the registered evaluators in registration order.
func (r *EvaluatorRegistry) All() []Evaluator { return r.evaluators }

func syntheticName(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}

// JobResult is the per-(datapoint, job) outcome: either a normalized
// output with one evaluator score per registered evaluator, or a failed
// job with one synthesized failure entry per evaluator (spec.md I4).
type JobResult struct {
	JobName         string           `json:"jobName"`
	Output          any              `json:"output"`
	Error           string           `json:"error,omitempty"`
	EvaluatorScores []EvaluatorScore `json:"evaluatorScores"`
}

// EvaluatorScore is one evaluator's judgement of one job's output.
type EvaluatorScore struct {
	EvaluatorName string `json:"evaluatorName"`
	Score         Score  `json:"score"`
	Error         string `json:"error,omitempty"`
}

// Score is the normalized `{ value, pass?, explanation? }` shape spec.md
// §3 describes. See score.go for the ScoreValue tagged union and the
// normalizer that produces it.
type Score struct {
	Value       ScoreValue `json:"value"`
	Pass        *bool      `json:"pass,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
}

// EvaluationResultCell is a tagged multi-metric score, e.g. a retrieval
// evaluator emitting {precision, recall, f1} under one named cell.
type EvaluationResultCell struct {
	Type  string             `json:"type"`
	Value map[string]float64 `json:"value"`
}

// DatapointResult is one entry of the EvaluatorqResult sequence: a
// resolved datapoint paired with every job's result against it.
type DatapointResult struct {
	DataPoint  Datapoint   `json:"dataPoint"`
	JobResults []JobResult `json:"jobResults"`
}

// Result is the canonical in-memory result tree produced by one
// evaluatorq run, plus the bookkeeping the Aggregator, Presenter, and
// Uploader all need.
type Result struct {
	RunID     ulid.ULID         `json:"runId"`
	Name      string            `json:"name"`
	DatasetID string            `json:"datasetId,omitempty"`
	Results   []DatapointResult `json:"results"`
	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
}

// Passed reports whether every evaluator score that opted into pass/fail
// by returning an explicit boolean reported true (spec.md I6).
func (r *Result) Passed() bool {
	for _, dr := range r.Results {
		for _, jr := range dr.JobResults {
			for _, es := range jr.EvaluatorScores {
				if es.Score.Pass != nil && !*es.Score.Pass {
					return false
				}
			}
		}
	}
	return true
}
