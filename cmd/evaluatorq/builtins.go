package main

import (
	"context"
	"fmt"
	"reflect"

	"github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

// builtinJobs and builtinEvaluators are the small in-process registry the
// experiment YAML's job/evaluator names resolve against. A real embedding
// application populates its own registry in Go code and calls
// evaluatorq.Run directly instead of going through this binary.
var builtinJobs = map[string]func(ctx context.Context, d evaluation.Datapoint, rowIndex int) (any, error){
	"echo": func(_ context.Context, d evaluation.Datapoint, _ int) (any, error) {
		return d.Inputs, nil
	},
}

var builtinEvaluators = map[string]func(ctx context.Context, d evaluation.Datapoint, output any) (any, error){
	"exact-match": func(_ context.Context, d evaluation.Datapoint, output any) (any, error) {
		pass := reflect.DeepEqual(output, d.ExpectedOutput)
		return map[string]any{"value": pass, "pass": pass}, nil
	},
}

func resolveJob(name string) (evaluation.Job, error) {
	fn, ok := builtinJobs[name]
	if !ok {
		return evaluation.Job{}, fmt.Errorf("unknown job %q", name)
	}
	return evaluation.Job{Name: name, Fn: fn}, nil
}

func resolveEvaluators(names []string) ([]evaluation.Evaluator, error) {
	out := make([]evaluation.Evaluator, 0, len(names))
	for _, name := range names {
		fn, ok := builtinEvaluators[name]
		if !ok {
			return nil, fmt.Errorf("unknown evaluator %q", name)
		}
		out = append(out, evaluation.Evaluator{Name: name, Fn: fn})
	}
	return out, nil
}
