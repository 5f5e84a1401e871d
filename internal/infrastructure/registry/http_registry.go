// Package registry implements the DatasetRegistry interface the resolver
// depends on, fetching remote dataset pages over HTTP.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	evaluation "github.com/orq-ai/evaluatorq/internal/core/services/evaluation"
)

const pageSize = 100

// HTTPRegistry pages a remote dataset over HTTP, mirroring the teacher's
// provider-client construction style: configurable timeout, bearer auth,
// base URL override.
type HTTPRegistry struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New builds an HTTPRegistry. timeout below or equal to zero defaults to
// 30s.
func New(baseURL, apiKey string, timeout time.Duration) *HTTPRegistry {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRegistry{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type pageResponse struct {
	Records    []recordDTO `json:"records"`
	NextCursor string      `json:"next_cursor"`
	HasMore    bool        `json:"has_more"`
}

type recordDTO struct {
	ID             string           `json:"id"`
	Inputs         map[string]any   `json:"inputs"`
	ExpectedOutput any              `json:"expectedOutput"`
	Messages       []domain.Message `json:"messages"`
	Extra          map[string]any   `json:"extra"`
}

// Page implements evaluation.DatasetRegistry. Every request carries a
// fresh, client-generated request ID (github.com/google/uuid) in the
// X-Request-Id header, and error messages name it, so a failed page can
// be correlated with server-side logs. A failed request is not retried.
func (r *HTTPRegistry) Page(ctx context.Context, datasetID, cursor string) (evaluation.DatasetPage, error) {
	requestID := uuid.New().String()

	q := url.Values{}
	q.Set("dataset_id", datasetID)
	q.Set("limit", fmt.Sprintf("%d", pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	endpoint := r.baseURL + "/v1/datasets/" + url.PathEscape(datasetID) + "/items?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return evaluation.DatasetPage{}, fmt.Errorf("registry: failed to build page request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return evaluation.DatasetPage{}, fmt.Errorf("registry: page request %s failed: %w", requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return evaluation.DatasetPage{}, fmt.Errorf("registry: page request %s returned status %d", requestID, resp.StatusCode)
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return evaluation.DatasetPage{}, fmt.Errorf("registry: failed to decode page response: %w", err)
	}

	records := make([]evaluation.DatasetRecord, len(page.Records))
	for i, rec := range page.Records {
		records[i] = evaluation.DatasetRecord{
			ID:             rec.ID,
			Inputs:         rec.Inputs,
			ExpectedOutput: rec.ExpectedOutput,
			Messages:       rec.Messages,
			Extra:          rec.Extra,
		}
	}

	return evaluation.DatasetPage{
		Records:    records,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}, nil
}
