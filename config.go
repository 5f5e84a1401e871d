package evaluatorq

import (
	"context"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	evalsvc "github.com/orq-ai/evaluatorq/internal/core/services/evaluation"
)

// Datapoint, Job, and Evaluator are the public names for the domain types
// every caller constructs a Config out of.
type (
	Datapoint = domain.Datapoint
	Message   = domain.Message
	Job       = domain.Job
	Evaluator = domain.Evaluator
	Result    = domain.Result
)

// DatapointSource produces one datapoint, possibly asynchronously — the
// element type of an inline Data sequence (spec.md §4.1).
type DatapointSource = evalsvc.DatapointSource

// Literal wraps an already-materialized Datapoint as a DatapointSource.
func Literal(d Datapoint) DatapointSource { return evalsvc.Literal(d) }

// Data is either an InlineData sequence or a DatasetDescriptor.
type Data interface {
	isData()
}

// InlineData is a finite ordered sequence of datapoint sources.
type InlineData []DatapointSource

func (InlineData) isData() {}

// DatasetDescriptor references a remote dataset instead of inline data.
type DatasetDescriptor struct {
	DatasetID       string
	IncludeMessages bool
}

func (DatasetDescriptor) isData() {}

// Config carries every option spec.md §6 names for one evaluatorq run.
type Config struct {
	// Data is required: an InlineData sequence or a DatasetDescriptor.
	Data Data

	// Jobs is required, must contain at least one entry.
	Jobs []Job

	// Evaluators is optional; empty means no scoring, presentation still runs.
	Evaluators []Evaluator

	// Parallelism is the maximum concurrent datapoint tasks. Default 1.
	Parallelism int

	// Print controls whether the presenter emits to stdout. nil means the
	// default, true.
	Print *bool

	// SendResults controls whether the uploader runs. nil means auto (true
	// iff ORQ_API_KEY is set); non-nil pins the behavior explicitly.
	SendResults *bool

	// Description is free-text stored on the uploaded record.
	Description string

	// Path is a slash-delimited string like "Project/Folder/Subfolder"
	// mapping to a remote project + folder path.
	Path string
}

// Context is the ambient context type threaded through every job and
// evaluator call.
type Context = context.Context

// Bool returns a pointer to b, for populating Config.Print or
// Config.SendResults without an intermediate variable.
func Bool(b bool) *bool { return &b }
