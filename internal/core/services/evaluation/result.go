package evaluation

import (
	"time"

	domain "github.com/orq-ai/evaluatorq/internal/core/domain/evaluation"
	"github.com/orq-ai/evaluatorq/pkg/ulid"
)

// AssembleResult stamps the bookkeeping spec.md's Result Assembler module
// owns (§2.5) around an already-ordered DatapointResult sequence: a fresh
// RunID, the experiment name, the optional datasetId the Resolver
// propagated (§4.1), and the wall-clock window framing the Executor run.
func AssembleResult(name, datasetID string, results []domain.DatapointResult, start, end time.Time) *domain.Result {
	if results == nil {
		results = []domain.DatapointResult{}
	}
	return &domain.Result{
		RunID:     ulid.New(),
		Name:      name,
		DatasetID: datasetID,
		Results:   results,
		StartTime: start,
		EndTime:   end,
	}
}
