// Package plan prepares the destination index and turns documents into store actions.
package plan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/logger"
)

// Service is the publication planner.
type Service struct {
	idx         IndexManager
	descriptors DescriptorLoader
}

// New creates a planner.
func New(idx IndexManager, descriptors DescriptorLoader) *Service {
	return &Service{idx: idx, descriptors: descriptors}
}

// Prepare readies index for mode. Create mode fails with domain.ErrIndexExists
// when the index is already there and otherwise creates it from the kind's
// descriptor. Update mode touches nothing: documents are upserted into whatever
// index exists.
func (s *Service) Prepare(ctx context.Context, kind domain.Kind, index string, mode domain.Mode) error {
	switch mode {
	case domain.ModeUpdate:
		return nil
	case domain.ModeCreate:
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	exists, err := s.idx.IndexExists(ctx, index)
	if err != nil {
		return db.ToDomain(err)
	}
	if exists {
		return fmt.Errorf("%w: %s", domain.ErrIndexExists, index)
	}

	raw, err := s.descriptors.Load(ctx, kind)
	if err != nil {
		return err
	}
	def, err := db.NewIndexDefinition(index, raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidDescriptor, kind, err)
	}
	if err := s.idx.CreateIndex(ctx, def); err != nil {
		return db.ToDomain(err)
	}

	logger.FromContext(ctx).Info("created index",
		zap.String("kind", string(kind)),
		zap.String("index", index),
	)
	return nil
}

// Actions maps each document to one action: create in create mode, upserting
// update in update mode. Order is preserved.
func Actions(mode domain.Mode, index string, docs []document.Document) []action.Action {
	out := make([]action.Action, len(docs))
	for i, d := range docs {
		if mode == domain.ModeCreate {
			out[i] = action.Create(index, d)
		} else {
			out[i] = action.Update(index, d)
		}
	}
	return out
}

// Deletes maps ids to delete actions against index.
func Deletes(index string, ids []string) []action.Action {
	out := make([]action.Action, len(ids))
	for i, id := range ids {
		out[i] = action.Delete(index, id)
	}
	return out
}
