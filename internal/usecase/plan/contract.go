package plan

import (
	"context"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain"
)

// IndexManager checks and creates destination indices.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// DescriptorLoader returns the raw settings/mappings descriptor for a kind.
type DescriptorLoader interface {
	Load(ctx context.Context, kind domain.Kind) ([]byte, error)
}
