package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

// DatapointSource produces one datapoint, possibly asynchronously. Inline
// data is a finite ordered sequence of these (spec.md §4.1): a bare
// datapoint is represented as a source that returns immediately.
type DatapointSource func(ctx context.Context) (domain.Datapoint, error)

// Literal wraps an already-materialized datapoint as a DatapointSource.
func Literal(d domain.Datapoint) DatapointSource {
	return func(context.Context) (domain.Datapoint, error) { return d, nil }
}

// Descriptor references a remote dataset instead of inline data.
type Descriptor struct {
	DatasetID       string
	IncludeMessages bool
}

// DatasetRecord is one page entry returned by a DatasetRegistry.
type DatasetRecord struct {
	ID             string
	Inputs         map[string]any
	ExpectedOutput any
	Messages       []domain.Message
	Extra          map[string]any
}

// DatasetPage is one page of a remote dataset listing.
type DatasetPage struct {
	Records    []DatasetRecord
	NextCursor string
	HasMore    bool
}

// DatasetRegistry pages a remote dataset to exhaustion. Implementations
// live in internal/infrastructure (HTTP today); tests supply fakes.
type DatasetRegistry interface {
	Page(ctx context.Context, datasetID, cursor string) (DatasetPage, error)
}

// Resolver turns a user's inline sequence or dataset descriptor into a
// finite ordered sequence of materialized Datapoints (spec.md §4.1).
type Resolver struct {
	registry    DatasetRegistry
	parallelism int64
	logger      *slog.Logger
}

// NewResolver builds a Resolver. registry may be nil if only inline data
// will ever be resolved. parallelism below 1 is clamped to 1.
func NewResolver(registry DatasetRegistry, parallelism int, logger *slog.Logger) *Resolver {
	if parallelism < 1 {
		parallelism = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, parallelism: int64(parallelism), logger: logger}
}

// ResolveInline awaits each source in input order with the same
// parallelism bound as the Executor, so materializing thousands of lazy
// datapoints does not spawn thousands of goroutines eagerly. A source that
// errors is dropped and logged at warn level; resolution continues (I5).
func (r *Resolver) ResolveInline(ctx context.Context, sources []DatapointSource) []domain.Datapoint {
	type slot struct {
		ok bool
		d  domain.Datapoint
	}
	slots := make([]slot, len(sources))
	sem := semaphore.NewWeighted(r.parallelism)

	var wg sync.WaitGroup
	for i, src := range sources {
		_ = sem.Acquire(ctx, 1)
		wg.Add(1)
		go func(i int, src DatapointSource) {
			defer wg.Done()
			defer sem.Release(1)

			d, err := src(ctx)
			if err != nil {
				resErr := domain.NewResolutionError(fmt.Sprintf("dropping datapoint at row %d", i), err)
				r.logger.Warn("dropping datapoint: resolution failed",
					"row_index", i,
					"error", resErr,
				)
				return
			}
			slots[i] = slot{ok: true, d: d}
		}(i, src)
	}
	wg.Wait()

	out := make([]domain.Datapoint, 0, len(slots))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.d)
		}
	}
	return out
}

// ResolveDescriptor pages the remote registry to exhaustion and maps every
// record to a Datapoint. When desc.IncludeMessages is set, a record's
// top-level Messages are merged into Inputs["messages"]; a record that
// already carries an inputs.messages key in that case fails the whole run
// with a ConfigError naming the offending record (spec.md §4.1).
func (r *Resolver) ResolveDescriptor(ctx context.Context, desc Descriptor) ([]domain.Datapoint, error) {
	if r.registry == nil {
		return nil, domain.NewConfigError("no dataset registry configured for descriptor data", nil)
	}

	var datapoints []domain.Datapoint
	cursor := ""
	for {
		page, err := r.registry.Page(ctx, desc.DatasetID, cursor)
		if err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("failed to page dataset %q", desc.DatasetID), err)
		}

		for i, rec := range page.Records {
			d := domain.Datapoint{
				Inputs:         rec.Inputs,
				ExpectedOutput: rec.ExpectedOutput,
				Extra:          rec.Extra,
			}
			if desc.IncludeMessages {
				if _, exists := d.Inputs["messages"]; exists {
					label := rec.ID
					if label == "" {
						label = fmt.Sprintf("index %d", i)
					}
					return nil, domain.NewConfigError(
						fmt.Sprintf("includeMessages conflict: record %s already has inputs.messages", label), nil)
				}
				if d.Inputs == nil {
					d.Inputs = map[string]any{}
				}
				d.Inputs["messages"] = rec.Messages
				d.Messages = rec.Messages
			} else {
				d.Messages = rec.Messages
			}
			datapoints = append(datapoints, d)
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	return datapoints, nil
}
