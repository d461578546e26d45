package preload

import (
	"context"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// RelatedReader runs one relationship query for a set of root keys. Every
// returned row carries its root key at column 0.
type RelatedReader interface {
	Related(ctx context.Context, kind domain.Kind, relation string, keys []string) ([]row.Row, error)
}
