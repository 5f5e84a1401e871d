package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

// experimentFile is the declarative YAML shape this demonstration binary
// accepts. Job and evaluator *names* are resolved against the in-process
// builtinJobs/builtinEvaluators registry in builtins.go — discovering `*.eval.go`
// files compiled as Go plugins is out of scope; this keeps the binary
// illustrative without inventing a scripting runtime.
type experimentFile struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Path        string           `yaml:"path"`
	Parallelism int              `yaml:"parallelism"`
	Print       *bool            `yaml:"print"`
	SendResults *bool            `yaml:"sendResults"`
	Job         string           `yaml:"job"`
	Evaluators  []string         `yaml:"evaluators"`
	Data        []experimentItem `yaml:"data"`
}

type experimentItem struct {
	Inputs         map[string]any `yaml:"inputs"`
	ExpectedOutput any            `yaml:"expectedOutput"`
}

func loadExperimentFile(path string) (*experimentFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file %q: %w", path, err)
	}

	var exp experimentFile
	if err := yaml.Unmarshal(b, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse experiment file %q: %w", path, err)
	}
	if exp.Name == "" {
		return nil, fmt.Errorf("experiment file %q: name is required", path)
	}
	if exp.Job == "" {
		return nil, fmt.Errorf("experiment file %q: job is required", path)
	}
	return &exp, nil
}

func (exp *experimentFile) datapoints() []evaluation.Datapoint {
	out := make([]evaluation.Datapoint, len(exp.Data))
	for i, item := range exp.Data {
		out[i] = evaluation.Datapoint{
			Inputs:         item.Inputs,
			ExpectedOutput: item.ExpectedOutput,
		}
	}
	return out
}
