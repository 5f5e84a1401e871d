package evaluation

import (
	"fmt"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

// AggregateKind tags the reduction applied to one (job, evaluator) cell,
// mirroring the teacher's ScoreConfig.DataType enum but detected from the
// scores themselves rather than declared up front.
type AggregateKind string

const (
	AggregateKindNumeric    AggregateKind = "numeric"
	AggregateKindBoolean    AggregateKind = "boolean"
	AggregateKindString     AggregateKind = "string"
	AggregateKindStructured AggregateKind = "structured"
	AggregateKindEmpty      AggregateKind = "empty"
	AggregateKindMixed      AggregateKind = "mixed"
)

// AggregateCell is one (jobName, evaluatorName) summary row spec.md §4.6
// describes: the reduction kind detected from the successful scores, a
// presentation-ready Display string, and the raw reduction value for
// callers that want the number rather than the formatted text.
type AggregateCell struct {
	JobName       string
	EvaluatorName string
	Kind          AggregateKind
	Display       string
	Numeric       float64
	PassRate      float64
	Count         int
}

// Aggregate computes one AggregateCell per (job, evaluator) pair, iterating
// both registries in registration order so output is stable across runs
// regardless of map iteration (grounded on canonical_json.go's
// deterministic-ordering discipline).
func Aggregate(jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry, results []domain.DatapointResult) []AggregateCell {
	cells := make([]AggregateCell, 0, jobs.Len()*evaluators.Len())
	for ji, job := range jobs.All() {
		for ei, ev := range evaluators.All() {
			values := collectSuccessfulValues(results, ji, ei)
			cells = append(cells, reduceCell(job.Name, ev.Name, values))
		}
	}
	return cells
}

func collectSuccessfulValues(results []domain.DatapointResult, jobIndex, evaluatorIndex int) []domain.ScoreValue {
	var values []domain.ScoreValue
	for _, dr := range results {
		if jobIndex >= len(dr.JobResults) {
			continue
		}
		jr := dr.JobResults[jobIndex]
		if evaluatorIndex >= len(jr.EvaluatorScores) {
			continue
		}
		es := jr.EvaluatorScores[evaluatorIndex]
		if es.Error != "" {
			continue
		}
		values = append(values, es.Score.Value)
	}
	return values
}

// reduceCell implements spec.md §4.6's type-aware reduction table. Kind
// detection reads only the value field of each normalized score.
func reduceCell(jobName, evaluatorName string, values []domain.ScoreValue) AggregateCell {
	base := AggregateCell{JobName: jobName, EvaluatorName: evaluatorName, Count: len(values)}

	if len(values) == 0 {
		base.Kind = AggregateKindEmpty
		base.Display = "-"
		return base
	}

	kind, uniform := detectKind(values)
	if !uniform {
		base.Kind = AggregateKindMixed
		base.Display = "[mixed]"
		return base
	}

	switch kind {
	case domain.ScoreKindNum:
		var sum float64
		for _, v := range values {
			sum += v.Num
		}
		mean := sum / float64(len(values))
		base.Kind = AggregateKindNumeric
		base.Numeric = mean
		base.Display = fmt.Sprintf("%.2f", mean)
	case domain.ScoreKindBool:
		var trueCount int
		for _, v := range values {
			if v.Bool {
				trueCount++
			}
		}
		rate := float64(trueCount) / float64(len(values)) * 100
		base.Kind = AggregateKindBoolean
		base.PassRate = rate
		base.Display = fmt.Sprintf("%.1f%%", rate)
	case domain.ScoreKindStr:
		base.Kind = AggregateKindString
		base.Display = "[string]"
	case domain.ScoreKindCell, domain.ScoreKindRaw:
		base.Kind = AggregateKindStructured
		base.Display = "[structured]"
	default:
		base.Kind = AggregateKindMixed
		base.Display = "[mixed]"
	}
	return base
}

func detectKind(values []domain.ScoreValue) (domain.ScoreKind, bool) {
	first := values[0].Kind
	for _, v := range values[1:] {
		if v.Kind != first {
			return "", false
		}
	}
	return first, true
}

// CountFailures counts every EvaluatorScore across the whole result tree
// whose Pass is explicitly false, the exit-status aggregate spec.md §4.6
// keeps separate from the display reduction above.
func CountFailures(results []domain.DatapointResult) int {
	count := 0
	for _, dr := range results {
		for _, jr := range dr.JobResults {
			for _, es := range jr.EvaluatorScores {
				if es.Score.Pass != nil && !*es.Score.Pass {
					count++
				}
			}
		}
	}
	return count
}
