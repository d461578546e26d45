// Package build turns one root row and its preloaded related rows into a document.
package build

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/entity"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
	"github.com/kailas-cloud/igsrindex/internal/logger"
)

// ErrNoID signals a root row without a usable document id. Such rows are skipped.
var ErrNoID = errors.New("root row has no document id")

// Relations holds preloaded related rows: relation name, then root key, then
// rows in source order.
type Relations map[string]map[string][]row.Row

// Rows returns the rows of relation for key (nil when there are none).
func (r Relations) Rows(relation, key string) []row.Row {
	return r[relation][key]
}

// Service builds documents of one entity kind.
type Service struct {
	desc *entity.Descriptor
}

// New creates a builder for desc.
func New(desc *entity.Descriptor) *Service {
	return &Service{desc: desc}
}

// Build produces the document for root. Folds run in relation order, each
// relation's rows in source order.
func (s *Service) Build(root row.Row, rel Relations) (document.Document, error) {
	id, ok := root.Key(s.desc.IDCol)
	if !ok {
		if _, err := root.Get(s.desc.IDCol); err != nil {
			return document.Document{}, s.rowErr("", "", &domain.RowError{Field: "id", Err: err})
		}
		return document.Document{}, ErrNoID
	}
	key, _ := root.Key(entity.KeyCol)

	doc := s.desc.Template()
	if err := s.desc.Overlay(doc, root); err != nil {
		return document.Document{}, s.rowErr("", key, err)
	}

	scope := entity.NewScope(doc)
	for _, r := range s.desc.Relations {
		for _, rr := range rel.Rows(r.Name, key) {
			for _, f := range r.Folds {
				if err := f.Apply(scope, rr); err != nil {
					return document.Document{}, s.rowErr(r.Name, key, err)
				}
			}
		}
	}

	for _, d := range s.desc.Derived {
		if err := d.Derive(doc); err != nil {
			return document.Document{}, fmt.Errorf("%s %s: %w", s.desc.Kind, id, err)
		}
	}

	return document.Document{ID: id, Body: doc}, nil
}

// BuildAll builds a document per root row, in order. Rows without an id are
// logged and counted in skipped; malformed rows abort the run.
func (s *Service) BuildAll(ctx context.Context, roots []row.Row, rel Relations) (docs []document.Document, skipped int, err error) {
	log := logger.FromContext(ctx)
	docs = make([]document.Document, 0, len(roots))
	for i, root := range roots {
		d, berr := s.Build(root, rel)
		if errors.Is(berr, ErrNoID) {
			skipped++
			key, _ := root.Key(entity.KeyCol)
			log.Warn("skipping root row without document id",
				zap.String("kind", string(s.desc.Kind)),
				zap.Int("row", i),
				zap.String("root_key", key),
			)
			continue
		}
		if berr != nil {
			return nil, skipped, berr
		}
		docs = append(docs, d)
	}
	return docs, skipped, nil
}

func (s *Service) rowErr(relation, key string, err error) error {
	var re *domain.RowError
	if errors.As(err, &re) {
		re.Kind = s.desc.Kind
		re.Relation = relation
		re.Key = key
		return re
	}
	return &domain.RowError{Kind: s.desc.Kind, Relation: relation, Key: key, Err: err}
}
