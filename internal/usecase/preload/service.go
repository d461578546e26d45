// Package preload batches relationship queries for a whole run and groups the
// results by root key.
package preload

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/domain/entity"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
	"github.com/kailas-cloud/igsrindex/internal/logger"
	"github.com/kailas-cloud/igsrindex/internal/usecase/build"
)

// DefaultBatchSize bounds the number of keys per IN (...) predicate.
const DefaultBatchSize = 1000

// Service loads all related rows for a set of roots.
type Service struct {
	src       RelatedReader
	batchSize int
}

// New creates a preload service.
func New(src RelatedReader) *Service {
	return &Service{src: src, batchSize: DefaultBatchSize}
}

// WithBatchSize configures the number of keys per relationship query.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Load preloads every relation of desc for keys. Each relation costs
// ceil(len(keys)/batchSize) queries; no keys means no queries. Within a key,
// rows keep the order the source returned them in.
func (s *Service) Load(ctx context.Context, desc *entity.Descriptor, keys []string) (build.Relations, error) {
	rel := make(build.Relations, len(desc.Relations))
	if len(keys) == 0 {
		return rel, nil
	}
	keys = unique(keys)

	log := logger.FromContext(ctx)
	for _, r := range desc.Relations {
		grouped := make(map[string][]row.Row)
		total := 0
		for start := 0; start < len(keys); start += s.batchSize {
			end := min(start+s.batchSize, len(keys))
			rows, err := s.src.Related(ctx, desc.Kind, r.Name, keys[start:end])
			if err != nil {
				return nil, fmt.Errorf("preload %s.%s: %w", desc.Kind, r.Name, err)
			}
			for _, rr := range rows {
				k, ok := rr.Key(entity.KeyCol)
				if !ok {
					continue
				}
				grouped[k] = append(grouped[k], rr)
			}
			total += len(rows)
		}
		rel[r.Name] = grouped
		log.Debug("preloaded relation",
			zap.String("kind", string(desc.Kind)),
			zap.String("relation", r.Name),
			zap.Int("keys", len(keys)),
			zap.Int("rows", total),
		)
	}
	return rel, nil
}

func unique(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
