// Package publish submits planned actions to the document store in bulk.
package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
	"github.com/kailas-cloud/igsrindex/internal/logger"
)

// DefaultBatchSize is the number of actions per bulk request.
const DefaultBatchSize = 500

// Service is the bulk publisher.
type Service struct {
	w         BulkWriter
	batchSize int
}

// New creates a bulk publisher.
func New(w BulkWriter) *Service {
	return &Service{w: w, batchSize: DefaultBatchSize}
}

// WithBatchSize configures the number of actions per bulk request.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// Publish submits actions in order. Item failures are collected in the
// outcome and never abort the run. A chunk that cannot be submitted at all
// stops publication and is returned as an error with the outcome so far.
func (s *Service) Publish(ctx context.Context, actions []action.Action) (batch.Outcome, error) {
	var out batch.Outcome
	log := logger.FromContext(ctx)

	for start := 0; start < len(actions); start += s.batchSize {
		end := min(start+s.batchSize, len(actions))
		chunk := actions[start:end]

		results, err := s.w.Bulk(ctx, chunk)
		if err != nil {
			return out, fmt.Errorf("publish actions %d-%d: %w", start, end-1, db.ToDomain(err))
		}
		if len(results) != len(chunk) {
			return out, fmt.Errorf("publish actions %d-%d: got %d results", start, end-1, len(results))
		}

		for i, r := range results {
			out.Add(r)
			if r.Status() != batch.StatusOK {
				log.Warn("document failed",
					zap.String("op", string(chunk[i].Op)),
					zap.String("index", chunk[i].Index),
					zap.String("id", r.ID()),
					zap.Error(r.Err()),
				)
			}
		}
	}
	return out, nil
}
