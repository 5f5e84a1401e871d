// Package uploader serializes a completed run into the remote platform's
// wire format and posts it to the results endpoint.
package uploader

import (
	"fmt"
	"time"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	evalsvc "github.com/orq-ai/evaluatorq/internal/core/services/evaluation"
)

// Payload is the remote wire format from spec.md §6, byte-for-byte.
type Payload struct {
	ExperimentName string                   `json:"experiment_name"`
	Description    string                   `json:"description,omitempty"`
	Path           string                   `json:"path,omitempty"`
	DatasetID      string                   `json:"dataset_id,omitempty"`
	StartTime      string                   `json:"start_time"`
	EndTime        string                   `json:"end_time"`
	Results        []PayloadDatapointResult `json:"results"`
}

// PayloadDatapointResult mirrors domain.DatapointResult in wire shape.
type PayloadDatapointResult struct {
	DataPoint  PayloadDatapoint   `json:"dataPoint"`
	JobResults []PayloadJobResult `json:"jobResults"`
}

// PayloadDatapoint mirrors domain.Datapoint in wire shape.
type PayloadDatapoint struct {
	Inputs         map[string]any   `json:"inputs"`
	ExpectedOutput any              `json:"expectedOutput,omitempty"`
	Messages       []domain.Message `json:"messages,omitempty"`
}

// PayloadJobResult mirrors domain.JobResult, with Output run through the
// serialization rules of spec.md §4.8.
type PayloadJobResult struct {
	JobName         string                  `json:"jobName"`
	Output          any                     `json:"output"`
	Error           string                  `json:"error,omitempty"`
	EvaluatorScores []PayloadEvaluatorScore `json:"evaluatorScores"`
}

// PayloadEvaluatorScore mirrors domain.EvaluatorScore, with Score.Value run
// through the serialization rules of spec.md §4.8.
type PayloadEvaluatorScore struct {
	EvaluatorName string       `json:"evaluatorName"`
	Score         PayloadScore `json:"score"`
	Error         string       `json:"error,omitempty"`
}

// PayloadScore mirrors domain.Score in wire shape.
type PayloadScore struct {
	Value       any    `json:"value"`
	Pass        *bool  `json:"pass,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// BuildPayload serializes a Result into the remote wire format. description
// and path are free-text options passed through from the run Config.
func BuildPayload(result *domain.Result, description, path string) *Payload {
	p := &Payload{
		ExperimentName: result.Name,
		Description:    description,
		Path:           path,
		DatasetID:      result.DatasetID,
		StartTime:      result.StartTime.UTC().Format(time.RFC3339Nano),
		EndTime:        result.EndTime.UTC().Format(time.RFC3339Nano),
		Results:        make([]PayloadDatapointResult, len(result.Results)),
	}

	for i, dr := range result.Results {
		p.Results[i] = PayloadDatapointResult{
			DataPoint: PayloadDatapoint{
				Inputs:         dr.DataPoint.Inputs,
				ExpectedOutput: dr.DataPoint.ExpectedOutput,
				Messages:       dr.DataPoint.Messages,
			},
			JobResults: buildJobResults(dr.JobResults),
		}
	}
	return p
}

func buildJobResults(jobResults []domain.JobResult) []PayloadJobResult {
	out := make([]PayloadJobResult, len(jobResults))
	for i, jr := range jobResults {
		out[i] = PayloadJobResult{
			JobName:         jr.JobName,
			Output:          serializeOutput(jr.Output),
			Error:           jr.Error,
			EvaluatorScores: buildEvaluatorScores(jr.EvaluatorScores),
		}
	}
	return out
}

func buildEvaluatorScores(scores []domain.EvaluatorScore) []PayloadEvaluatorScore {
	out := make([]PayloadEvaluatorScore, len(scores))
	for i, es := range scores {
		out[i] = PayloadEvaluatorScore{
			EvaluatorName: es.EvaluatorName,
			Error:         es.Error,
			Score: PayloadScore{
				Value:       serializeScoreValue(es.Score.Value),
				Pass:        es.Score.Pass,
				Explanation: es.Score.Explanation,
			},
		}
	}
	return out
}

// serializeOutput implements spec.md §4.8's job output rule: primitives
// pass through, null stays null, everything else is JSON-stringified
// using the canonical (sorted-key) encoder so identical objects always
// serialize identically.
func serializeOutput(output any) any {
	switch output.(type) {
	case nil, bool, string, float32, float64,
		int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return output
	default:
		b, err := evalsvc.CanonicalJSONMarshal(output)
		if err != nil {
			return fmt.Sprintf("%v", output)
		}
		return string(b)
	}
}

// serializeScoreValue implements spec.md §4.8's score value rule:
// primitives and EvaluationResultCell pass through verbatim; arbitrary
// objects are JSON-stringified.
func serializeScoreValue(v domain.ScoreValue) any {
	switch v.Kind {
	case domain.ScoreKindBool:
		return v.Bool
	case domain.ScoreKindNum:
		return v.Num
	case domain.ScoreKindStr:
		return v.Str
	case domain.ScoreKindCell:
		return v.Cell
	case domain.ScoreKindRaw:
		b, err := evalsvc.CanonicalJSONMarshal(v.Raw)
		if err != nil {
			return fmt.Sprintf("%v", v.Raw)
		}
		return string(b)
	default:
		return nil
	}
}
