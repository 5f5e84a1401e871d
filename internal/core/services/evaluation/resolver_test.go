package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
)

func TestResolver_ResolveInline_PreservesOrder(t *testing.T) {
	r := NewResolver(nil, 2, discardLogger())

	sources := []DatapointSource{
		Literal(domain.Datapoint{Inputs: map[string]any{"i": 0}}),
		Literal(domain.Datapoint{Inputs: map[string]any{"i": 1}}),
		Literal(domain.Datapoint{Inputs: map[string]any{"i": 2}}),
	}

	got := r.ResolveInline(context.Background(), sources)
	require.Len(t, got, 3)
	for i, d := range got {
		assert.Equal(t, i, d.Inputs["i"])
	}
}

func TestResolver_ResolveInline_DropsFailures(t *testing.T) {
	r := NewResolver(nil, 4, discardLogger())

	sources := []DatapointSource{
		Literal(domain.Datapoint{Inputs: map[string]any{"i": 0}}),
		func(context.Context) (domain.Datapoint, error) {
			return domain.Datapoint{}, errors.New("rejected")
		},
		Literal(domain.Datapoint{Inputs: map[string]any{"i": 2}}),
	}

	got := r.ResolveInline(context.Background(), sources)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Inputs["i"])
	assert.Equal(t, 2, got[1].Inputs["i"])
}

func TestResolver_ResolveInline_Empty(t *testing.T) {
	r := NewResolver(nil, 1, discardLogger())
	got := r.ResolveInline(context.Background(), nil)
	assert.Empty(t, got)
}

type fakeRegistry struct {
	pages map[string][]DatasetPage
}

func (f *fakeRegistry) Page(_ context.Context, datasetID, cursor string) (DatasetPage, error) {
	pages := f.pages[datasetID]
	idx := 0
	if cursor != "" {
		for i, p := range pages {
			if p.NextCursor == cursor {
				idx = i + 1
				break
			}
		}
	}
	if idx >= len(pages) {
		return DatasetPage{}, nil
	}
	return pages[idx], nil
}

func TestResolver_ResolveDescriptor_PagesToExhaustion(t *testing.T) {
	registry := &fakeRegistry{pages: map[string][]DatasetPage{
		"ds1": {
			{Records: []DatasetRecord{{ID: "a", Inputs: map[string]any{"x": 1}}}, NextCursor: "c1", HasMore: true},
			{Records: []DatasetRecord{{ID: "b", Inputs: map[string]any{"x": 2}}}, HasMore: false},
		},
	}}

	r := NewResolver(registry, 1, discardLogger())
	datapoints, err := r.ResolveDescriptor(context.Background(), Descriptor{DatasetID: "ds1"})
	require.NoError(t, err)
	require.Len(t, datapoints, 2)
	assert.Equal(t, 1, datapoints[0].Inputs["x"])
	assert.Equal(t, 2, datapoints[1].Inputs["x"])
}

func TestResolver_ResolveDescriptor_IncludeMessagesConflict(t *testing.T) {
	registry := &fakeRegistry{pages: map[string][]DatasetPage{
		"ds1": {
			{
				Records: []DatasetRecord{{
					ID:       "rec-1",
					Inputs:   map[string]any{"messages": "already here"},
					Messages: []domain.Message{{Role: "user", Content: "hi"}},
				}},
			},
		},
	}}

	r := NewResolver(registry, 1, discardLogger())
	_, err := r.ResolveDescriptor(context.Background(), Descriptor{DatasetID: "ds1", IncludeMessages: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "includeMessages")
	assert.Contains(t, err.Error(), "rec-1")
	assert.True(t, domain.IsConfigError(err))
}

func TestResolver_ResolveDescriptor_MergesMessages(t *testing.T) {
	registry := &fakeRegistry{pages: map[string][]DatasetPage{
		"ds1": {
			{
				Records: []DatasetRecord{{
					ID:       "rec-1",
					Inputs:   map[string]any{"a": 1},
					Messages: []domain.Message{{Role: "user", Content: "hi"}},
				}},
			},
		},
	}}

	r := NewResolver(registry, 1, discardLogger())
	datapoints, err := r.ResolveDescriptor(context.Background(), Descriptor{DatasetID: "ds1", IncludeMessages: true})
	require.NoError(t, err)
	require.Len(t, datapoints, 1)
	assert.Equal(t, datapoints[0].Messages, datapoints[0].Inputs["messages"])
}

func TestResolver_ResolveDescriptor_NoRegistry(t *testing.T) {
	r := NewResolver(nil, 1, discardLogger())
	_, err := r.ResolveDescriptor(context.Background(), Descriptor{DatasetID: "ds1"})
	require.Error(t, err)
	assert.True(t, domain.IsConfigError(err))
}
