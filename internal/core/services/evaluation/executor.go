package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

// tracerName identifies the engine's spans in whatever OpenTelemetry
// exporter the embedding process has configured; span content itself is
// not part of the result tree.
const tracerName = "github.com/orq-ai/evaluatorq/executor"

// Executor fans datapoints out over a bounded worker pool, running every
// job then every evaluator sequentially within each datapoint task.
// Concurrency is gated at the datapoint level only, per spec.md §4.4.
type Executor struct {
	jobs        *domain.JobRegistry
	evaluators  *domain.EvaluatorRegistry
	parallelism int64
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewExecutor builds an Executor. parallelism below 1 is clamped to 1.
func NewExecutor(jobs *domain.JobRegistry, evaluators *domain.EvaluatorRegistry, parallelism int, logger *slog.Logger) *Executor {
	if parallelism < 1 {
		parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		jobs:        jobs,
		evaluators:  evaluators,
		parallelism: int64(parallelism),
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}
}

// Run executes every datapoint against every job/evaluator pair and returns
// the DatapointResult slice re-sorted into input order (I1, I2, I3).
func (e *Executor) Run(ctx context.Context, datapoints []domain.Datapoint) ([]domain.DatapointResult, error) {
	ctx, span := e.tracer.Start(ctx, "executor.run",
		trace.WithAttributes(
			attribute.Int("evaluatorq.datapoint_count", len(datapoints)),
			attribute.Int64("evaluatorq.parallelism", e.parallelism),
		))
	defer span.End()

	results := make([]domain.DatapointResult, len(datapoints))
	sem := semaphore.NewWeighted(e.parallelism)

	// Every goroutine writes to its own result slot, so no lock guards
	// results itself; only sem bounds how many run concurrently.
	var wg sync.WaitGroup
	for i, d := range datapoints {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, domain.NewInvariantError("executor: failed to acquire scheduling slot: " + err.Error())
		}

		wg.Add(1)
		go func(i int, d domain.Datapoint) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = e.runDatapointTask(ctx, i, d)
		}(i, d)
	}
	wg.Wait()

	return results, nil
}

// runDatapointTask runs every job, then every evaluator per job output, for
// one datapoint. Job/evaluator panics are recovered and folded into the
// same error-capture path as a returned error (Design Notes §9: uniform
// capture of thrown-or-rejected user callbacks).
func (e *Executor) runDatapointTask(ctx context.Context, index int, d domain.Datapoint) domain.DatapointResult {
	ctx, span := e.tracer.Start(ctx, "executor.datapoint",
		trace.WithAttributes(attribute.Int("evaluatorq.row_index", index)))
	defer span.End()

	jobResults := make([]domain.JobResult, e.jobs.Len())

	for ji, job := range e.jobs.All() {
		output, jobErr := e.invokeJob(ctx, job, d, index)

		scores := make([]domain.EvaluatorScore, e.evaluators.Len())
		if jobErr != nil {
			e.logger.Error("job failed",
				"job", job.Name,
				"row_index", index,
				"error", jobErr,
			)
			for ei, ev := range e.evaluators.All() {
				scores[ei] = domain.JobFailureScore(ev.Name, jobErr)
			}
			jobResults[ji] = domain.JobResult{
				JobName:         job.Name,
				Output:          nil,
				Error:           jobErr.Error(),
				EvaluatorScores: scores,
			}
			continue
		}

		for ei, ev := range e.evaluators.All() {
			raw, evalErr := e.invokeEvaluator(ctx, ev, d, output)
			score := domain.NormalizeScore(raw, evalErr)
			score.EvaluatorName = ev.Name
			if evalErr != nil {
				e.logger.Error("evaluator failed",
					"evaluator", ev.Name,
					"job", job.Name,
					"row_index", index,
					"error", evalErr,
				)
			}
			scores[ei] = score
		}
		jobResults[ji] = domain.JobResult{
			JobName:         job.Name,
			Output:          output,
			EvaluatorScores: scores,
		}
	}

	return domain.DatapointResult{DataPoint: d, JobResults: jobResults}
}

// invokeJob calls job.Fn, converting a panic into the same (nil, error)
// shape a normal failure would produce.
func (e *Executor) invokeJob(ctx context.Context, job domain.Job, d domain.Datapoint, rowIndex int) (output any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", job.Name, r)
			output = nil
		}
	}()
	return job.Fn(ctx, d, rowIndex)
}

// invokeEvaluator calls evaluator.Fn, converting a panic into the same
// (nil, error) shape a normal failure would produce.
func (e *Executor) invokeEvaluator(ctx context.Context, ev domain.Evaluator, d domain.Datapoint, output any) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator %q panicked: %v", ev.Name, r)
			raw = nil
		}
	}()
	return ev.Fn(ctx, d, output)
}
