package publish

import (
	"context"

	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
)

// BulkWriter submits one chunk of actions to the document store.
type BulkWriter interface {
	Bulk(ctx context.Context, actions []action.Action) ([]batch.Result, error)
}
