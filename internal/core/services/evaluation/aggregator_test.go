package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

func scoreOf(v domain.ScoreValue) domain.EvaluatorScore {
	return domain.EvaluatorScore{EvaluatorName: "eval", Score: domain.Score{Value: v}}
}

func resultWith(score domain.EvaluatorScore) domain.DatapointResult {
	return domain.DatapointResult{
		JobResults: []domain.JobResult{{JobName: "job", EvaluatorScores: []domain.EvaluatorScore{score}}},
	}
}

func TestAggregate_Numeric(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	results := []domain.DatapointResult{
		resultWith(scoreOf(domain.NumValue(0.5))),
		resultWith(scoreOf(domain.NumValue(1.0))),
	}

	cells := Aggregate(jobs, evaluators, results)
	require.Len(t, cells, 1)
	assert.Equal(t, AggregateKindNumeric, cells[0].Kind)
	assert.Equal(t, "0.75", cells[0].Display)
}

func TestAggregate_Boolean(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	results := []domain.DatapointResult{
		resultWith(scoreOf(domain.BoolValue(true))),
		resultWith(scoreOf(domain.BoolValue(true))),
		resultWith(scoreOf(domain.BoolValue(false))),
	}

	cells := Aggregate(jobs, evaluators, results)
	require.Len(t, cells, 1)
	assert.Equal(t, AggregateKindBoolean, cells[0].Kind)
	assert.Equal(t, "66.7%", cells[0].Display)
}

func TestAggregate_MixedScoreKinds(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	results := []domain.DatapointResult{
		resultWith(scoreOf(domain.NumValue(0.8))),
		resultWith(scoreOf(domain.BoolValue(true))),
		resultWith(scoreOf(domain.StrValue("good"))),
	}

	cells := Aggregate(jobs, evaluators, results)
	require.Len(t, cells, 1)
	assert.Equal(t, AggregateKindMixed, cells[0].Kind)
	assert.Equal(t, "[mixed]", cells[0].Display)
}

func TestAggregate_EmptyWhenAllErrored(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	errored := domain.EvaluatorScore{EvaluatorName: "eval", Error: "boom"}
	results := []domain.DatapointResult{resultWith(errored)}

	cells := Aggregate(jobs, evaluators, results)
	require.Len(t, cells, 1)
	assert.Equal(t, AggregateKindEmpty, cells[0].Kind)
	assert.Equal(t, "-", cells[0].Display)
}

func TestAggregate_String(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	results := []domain.DatapointResult{
		resultWith(scoreOf(domain.StrValue("a"))),
		resultWith(scoreOf(domain.StrValue("b"))),
	}

	cells := Aggregate(jobs, evaluators, results)
	assert.Equal(t, AggregateKindString, cells[0].Kind)
	assert.Equal(t, "[string]", cells[0].Display)
}

func TestAggregate_Structured(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{Name: "job"})
	evaluators := domain.NewEvaluatorRegistry(domain.Evaluator{Name: "eval"})

	cell := domain.CellValue(domain.EvaluationResultCell{Type: "retrieval", Value: map[string]float64{"f1": 0.9}})
	results := []domain.DatapointResult{resultWith(scoreOf(cell))}

	cells := Aggregate(jobs, evaluators, results)
	assert.Equal(t, AggregateKindStructured, cells[0].Kind)
	assert.Equal(t, "[structured]", cells[0].Display)
}

func TestCountFailures(t *testing.T) {
	passTrue := true
	passFalse := false

	results := []domain.DatapointResult{
		{JobResults: []domain.JobResult{{EvaluatorScores: []domain.EvaluatorScore{
			{Score: domain.Score{Pass: &passTrue}},
			{Score: domain.Score{Pass: &passFalse}},
		}}}},
		{JobResults: []domain.JobResult{{EvaluatorScores: []domain.EvaluatorScore{
			{Score: domain.Score{Pass: nil}},
			{Score: domain.Score{Pass: &passFalse}},
		}}}},
	}

	assert.Equal(t, 2, CountFailures(results))
}
