// Package evaluatorq is an offline evaluation harness for LLM-backed
// pipelines: it resolves a dataset, fans it out across registered jobs and
// evaluators under bounded concurrency, aggregates per-evaluator
// statistics, renders a table, and optionally uploads the result tree to
// the orq.ai platform.
package evaluatorq

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	evalsvc "github.com/orq-ai/evaluatorq/internal/core/services/evaluation"
	"github.com/orq-ai/evaluatorq/internal/infrastructure/registry"
	"github.com/orq-ai/evaluatorq/internal/infrastructure/uploader"
	"github.com/orq-ai/evaluatorq/internal/presenter"
	"github.com/orq-ai/evaluatorq/pkg/logging"
)

const defaultBaseURL = "https://my.orq.ai"

// Run executes one evaluatorq experiment end to end (spec.md §2.9): it
// resolves data, runs the executor, assembles and aggregates the result
// tree, optionally prints and uploads it, and returns the result tree.
// Callers read Result.Passed() (or check the returned error) to decide
// process exit status; Run itself never calls os.Exit.
func Run(ctx context.Context, name string, cfg Config) (*Result, error) {
	logger := defaultLogger()

	if len(cfg.Jobs) == 0 {
		return nil, domain.NewConfigError("at least one job is required", nil)
	}
	if cfg.Data == nil {
		return nil, domain.NewConfigError("data is required", nil)
	}

	apiKey := os.Getenv("ORQ_API_KEY")
	baseURL := os.Getenv("ORQ_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sendResults := apiKey != ""
	if cfg.SendResults != nil {
		sendResults = *cfg.SendResults
		if sendResults && apiKey == "" {
			return nil, domain.NewConfigError("sendResults is true but ORQ_API_KEY is not set", nil)
		}
	}

	parallelism := cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	datapoints, datasetID, err := resolveData(ctx, cfg.Data, baseURL, apiKey, parallelism, logger)
	if err != nil {
		return nil, err
	}

	jobs := domain.NewJobRegistry(cfg.Jobs...)
	evaluators := domain.NewEvaluatorRegistry(cfg.Evaluators...)

	executor := evalsvc.NewExecutor(jobs, evaluators, parallelism, logger)

	start := time.Now()
	datapointResults, err := executor.Run(ctx, datapoints)
	end := time.Now()
	if err != nil {
		return nil, err
	}

	result := evalsvc.AssembleResult(name, datasetID, datapointResults, start, end)

	logger.Info("run complete",
		"name", name,
		"datapoints", len(result.Results),
		"duration", end.Sub(start),
		"passed", result.Passed(),
	)

	print := cfg.Print == nil || *cfg.Print
	if print {
		presenter.New(os.Stdout, !isTerminalStdout()).Print(result, jobs, evaluators)
	}

	if sendResults {
		up := uploader.New(baseURL, apiKey, 0, logger)
		payload := uploader.BuildPayload(result, cfg.Description, cfg.Path)
		if err := up.Upload(ctx, payload); err != nil {
			logger.Warn("upload failed", "error", err)
		}
	}

	return result, nil
}

func resolveData(ctx context.Context, data Data, baseURL, apiKey string, parallelism int, logger *slog.Logger) ([]domain.Datapoint, string, error) {
	switch d := data.(type) {
	case InlineData:
		resolver := evalsvc.NewResolver(nil, parallelism, logger)
		return resolver.ResolveInline(ctx, []evalsvc.DatapointSource(d)), "", nil
	case DatasetDescriptor:
		reg := registry.New(baseURL, apiKey, 0)
		resolver := evalsvc.NewResolver(reg, parallelism, logger)
		datapoints, err := resolver.ResolveDescriptor(ctx, evalsvc.Descriptor{
			DatasetID:       d.DatasetID,
			IncludeMessages: d.IncludeMessages,
		})
		if err != nil {
			return nil, "", err
		}
		return datapoints, d.DatasetID, nil
	default:
		return nil, "", domain.NewConfigError(fmt.Sprintf("unsupported data type %T", data), nil)
	}
}

func isTerminalStdout() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func defaultLogger() *slog.Logger {
	level := logging.ParseLevel(os.Getenv("ORQ_LOG_LEVEL"))
	format := os.Getenv("ORQ_LOG_FORMAT")
	if format == "" {
		format = "text"
	}
	return logging.NewLoggerWithFormat(level, format)
}
