package indexing

import (
	"context"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
	"github.com/kailas-cloud/igsrindex/internal/usecase/plan"
	"github.com/kailas-cloud/igsrindex/internal/usecase/preload"
	"github.com/kailas-cloud/igsrindex/internal/usecase/publish"
)

// RowSource reads root and related rows and maintains the file indexed flags.
type RowSource interface {
	preload.RelatedReader
	Roots(ctx context.Context, kind domain.Kind) ([]row.Row, error)
	StaleFiles(ctx context.Context) ([]string, error)
	SyncIndexedFlags(ctx context.Context) (int64, error)
}

// Store is the destination document store.
type Store interface {
	plan.IndexManager
	publish.BulkWriter
}
