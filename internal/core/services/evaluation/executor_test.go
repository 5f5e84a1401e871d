package evaluation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func equalsEvaluator(expected any) domain.Evaluator {
	return domain.Evaluator{
		Name: "equals",
		Fn: func(_ domain.Context, d domain.Datapoint, output any) (any, error) {
			pass := output == d.ExpectedOutput
			return map[string]any{"value": pass, "pass": pass}, nil
		},
	}
}

// scenario 1: minimal pass
func TestExecutor_MinimalPass(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{
		Name: "job",
		Fn: func(_ domain.Context, d domain.Datapoint, _ int) (any, error) {
			return 2, nil
		},
	})
	evaluators := domain.NewEvaluatorRegistry(equalsEvaluator(nil))

	datapoints := []domain.Datapoint{{Inputs: map[string]any{"a": 1}, ExpectedOutput: 2}}

	exec := NewExecutor(jobs, evaluators, 1, discardLogger())
	results, err := exec.Run(context.Background(), datapoints)
	require.NoError(t, err)
	require.Len(t, results, 1)

	jr := results[0].JobResults[0]
	require.Len(t, jr.EvaluatorScores, 1)
	es := jr.EvaluatorScores[0]
	assert.True(t, es.Score.Value.Bool)
	require.NotNil(t, es.Score.Pass)
	assert.True(t, *es.Score.Pass)
}

// scenario 2: exit on fail
func TestExecutor_ExitOnFail(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{
		Name: "job",
		Fn: func(_ domain.Context, d domain.Datapoint, _ int) (any, error) {
			return 3, nil
		},
	})
	evaluators := domain.NewEvaluatorRegistry(equalsEvaluator(nil))
	datapoints := []domain.Datapoint{{Inputs: map[string]any{"a": 1}, ExpectedOutput: 2}}

	exec := NewExecutor(jobs, evaluators, 1, discardLogger())
	results, err := exec.Run(context.Background(), datapoints)
	require.NoError(t, err)

	es := results[0].JobResults[0].EvaluatorScores[0]
	assert.False(t, es.Score.Value.Bool)
	require.NotNil(t, es.Score.Pass)
	assert.False(t, *es.Score.Pass)
}

// scenario 3: job throws
func TestExecutor_JobThrows(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{
		Name: "job",
		Fn: func(_ domain.Context, d domain.Datapoint, _ int) (any, error) {
			return nil, errors.New("boom")
		},
	})
	evaluators := domain.NewEvaluatorRegistry(equalsEvaluator(nil))
	datapoints := []domain.Datapoint{{Inputs: map[string]any{"a": 1}, ExpectedOutput: 2}}

	exec := NewExecutor(jobs, evaluators, 1, discardLogger())
	results, err := exec.Run(context.Background(), datapoints)
	require.NoError(t, err)

	jr := results[0].JobResults[0]
	assert.Nil(t, jr.Output)
	assert.Contains(t, jr.Error, "boom")

	require.Len(t, jr.EvaluatorScores, 1)
	es := jr.EvaluatorScores[0]
	assert.NotEmpty(t, es.Error)
	require.NotNil(t, es.Score.Pass)
	assert.False(t, *es.Score.Pass)
}

// scenario 4: parallelism bound
func TestExecutor_ParallelismBound(t *testing.T) {
	const n = 10
	const parallelism = 5

	var inFlight int32
	var maxInFlight int32

	jobs := domain.NewJobRegistry(domain.Job{
		Name: "sleepy",
		Fn: func(_ domain.Context, _ domain.Datapoint, _ int) (any, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				m := atomic.LoadInt32(&maxInFlight)
				if cur <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, cur) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil, nil
		},
	})
	evaluators := domain.NewEvaluatorRegistry()

	datapoints := make([]domain.Datapoint, n)
	for i := range datapoints {
		datapoints[i] = domain.Datapoint{Inputs: map[string]any{"i": i}}
	}

	exec := NewExecutor(jobs, evaluators, parallelism, discardLogger())

	start := time.Now()
	results, err := exec.Run(context.Background(), datapoints)
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, results, n)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&maxInFlight)), parallelism)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 250*time.Millisecond)
}

func TestExecutor_PanicRecovered(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{
		Name: "panicky",
		Fn: func(_ domain.Context, _ domain.Datapoint, _ int) (any, error) {
			panic("kaboom")
		},
	})
	evaluators := domain.NewEvaluatorRegistry(equalsEvaluator(nil))
	datapoints := []domain.Datapoint{{Inputs: map[string]any{}}}

	exec := NewExecutor(jobs, evaluators, 1, discardLogger())
	results, err := exec.Run(context.Background(), datapoints)
	require.NoError(t, err)

	jr := results[0].JobResults[0]
	assert.Contains(t, jr.Error, "kaboom")
}

func TestExecutor_EmptyEvaluators(t *testing.T) {
	jobs := domain.NewJobRegistry(domain.Job{
		Name: "job",
		Fn: func(_ domain.Context, _ domain.Datapoint, _ int) (any, error) {
			return "ok", nil
		},
	})
	evaluators := domain.NewEvaluatorRegistry()
	datapoints := []domain.Datapoint{{Inputs: map[string]any{}}}

	exec := NewExecutor(jobs, evaluators, 1, discardLogger())
	results, err := exec.Run(context.Background(), datapoints)
	require.NoError(t, err)
	assert.Empty(t, results[0].JobResults[0].EvaluatorScores)
}
