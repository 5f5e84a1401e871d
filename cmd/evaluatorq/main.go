// Package main provides a thin demonstration binary for the evaluatorq
// harness: it loads a declarative YAML experiment description, resolves
// its job/evaluator names against the small in-process registry in
// builtins.go, and runs it through evaluatorq.Run.
//
// Embedding applications are expected to call evaluatorq.Run directly
// from Go code instead of going through this binary; this exists to make
// the module runnable out of the box.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/orq-ai/evaluatorq"
	"github.com/orq-ai/evaluatorq/internal/config"
	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

const (
	exitOK          = 0
	exitEvalFailed  = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: evaluatorq <experiment.yaml>")
		return exitConfigError
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		return exitConfigError
	}
	applyConfigEnv(cfg)

	exp, err := loadExperimentFile(os.Args[1])
	if err != nil {
		log.Printf("%v", err)
		return exitConfigError
	}

	job, err := resolveJob(exp.Job)
	if err != nil {
		log.Printf("%v", err)
		return exitConfigError
	}

	evaluators, err := resolveEvaluators(exp.Evaluators)
	if err != nil {
		log.Printf("%v", err)
		return exitConfigError
	}

	sources := make([]evaluatorq.DatapointSource, len(exp.Data))
	for i, d := range exp.datapoints() {
		sources[i] = evaluatorq.Literal(d)
	}

	parallelism := exp.Parallelism
	if parallelism < 1 {
		parallelism = cfg.Run.Parallelism
	}

	printResults := exp.Print
	if printResults == nil {
		printResults = evaluatorq.Bool(cfg.Run.Print)
	}

	runCfg := evaluatorq.Config{
		Data:        evaluatorq.InlineData(sources),
		Jobs:        []evaluatorq.Job{job},
		Evaluators:  evaluators,
		Parallelism: parallelism,
		Print:       printResults,
		SendResults: exp.SendResults,
		Description: exp.Description,
		Path:        exp.Path,
	}

	result, err := evaluatorq.Run(context.Background(), exp.Name, runCfg)
	if err != nil {
		if domain.IsConfigError(err) {
			log.Printf("configuration error: %v", err)
			return exitConfigError
		}
		log.Printf("run failed: %v", err)
		return exitEvalFailed
	}

	if !result.Passed() {
		return exitEvalFailed
	}
	return exitOK
}

// applyConfigEnv exports the resolved config.Config back into the process
// environment so evaluatorq.Run (which reads ORQ_* directly, the same
// contract a caller embedding the package uses) sees the same uploader and
// logging settings config.Load() just resolved from .env/evaluatorq.yaml/
// defaults, not only whatever ORQ_* vars were already set on entry.
func applyConfigEnv(cfg *config.Config) {
	os.Setenv("ORQ_API_KEY", cfg.Uploader.APIKey)
	os.Setenv("ORQ_BASE_URL", cfg.Uploader.BaseURL)
	os.Setenv("ORQ_LOG_LEVEL", cfg.Logging.Level)
	os.Setenv("ORQ_LOG_FORMAT", cfg.Logging.Format)
}
