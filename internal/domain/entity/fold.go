package entity

import (
	"fmt"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// Scope is the per-document fold state. It is discarded once the document is built.
type Scope struct {
	Doc     *document.Record
	claimed map[*First]bool
	cats    map[*document.Record]*document.Categories
}

// NewScope starts folding into doc.
func NewScope(doc *document.Record) *Scope {
	return &Scope{
		Doc:     doc,
		claimed: make(map[*First]bool),
		cats:    make(map[*document.Record]*document.Categories),
	}
}

func (s *Scope) categories(host *document.Record) (*document.Categories, error) {
	if c, ok := s.cats[host]; ok {
		return c, nil
	}
	c, err := document.NewCategories(host)
	if err != nil {
		return nil, err
	}
	s.cats[host] = c
	return c, nil
}

// Fold applies one relation row to the document in scope.
type Fold interface {
	Apply(s *Scope, r row.Row) error
}

// Derivation recomputes a field after all folds ran.
type Derivation interface {
	Derive(doc *document.Record) error
}

// First overlays Fields onto the record at Target from the first row only.
// Rows arrive in source order, so the highest-precedence row wins.
type First struct {
	Target string
	Fields []Field
}

// Apply implements Fold.
func (f *First) Apply(s *Scope, r row.Row) error {
	if s.claimed[f] {
		return nil
	}
	host, err := s.Doc.RecordAt(f.Target)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	if err := setFields(host, f.Fields, r); err != nil {
		return err
	}
	s.claimed[f] = true
	return nil
}

// Values appends the value in Col to the list at Target, deduplicated by the Key
// columns (Col alone when Key is empty). Null values are not appended.
type Values struct {
	Target string
	Col    int
	Key    []int
	Coerce Coerce
}

// Apply implements Fold.
func (f *Values) Apply(s *Scope, r row.Row) error {
	fld := Field{Path: f.Target, Col: f.Col, Coerce: f.Coerce}
	v, err := fld.value(r)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	l, err := s.Doc.ListAt(f.Target)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	cols := f.Key
	if len(cols) == 0 {
		cols = []int{f.Col}
	}
	key, err := compositeKey(r, cols)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	l.Add(key, v)
	return nil
}

// Collection appends a record built from Fields to the list at Target,
// deduplicated by the Key columns.
type Collection struct {
	Target string
	Key    []int
	Fields []Field
}

// Apply implements Fold.
func (f *Collection) Apply(s *Scope, r row.Row) error {
	l, err := s.Doc.ListAt(f.Target)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	key, err := compositeKey(r, f.Key)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	if _, seen := l.Find(key); seen {
		return nil
	}
	rec := document.NewRecord()
	if err := setFields(rec, f.Fields, r); err != nil {
		return err
	}
	l.Add(key, rec)
	return nil
}

// Categories files the value in ValueCol under the category named by CategoryCol
// inside the record at Target. Rows with a null category are ignored.
type Categories struct {
	Target      string
	CategoryCol int
	ValueCol    int
}

// Apply implements Fold.
func (f *Categories) Apply(s *Scope, r row.Row) error {
	host, err := s.Doc.RecordAt(f.Target)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	return addCategory(s, host, f.Target, f.CategoryCol, f.ValueCol, r)
}

// Grouped keeps one record per distinct Key in the list at Target. Each group
// record carries Fields from its first row plus its own category family.
type Grouped struct {
	Target      string
	Key         []int
	Fields      []Field
	CategoryCol int
	ValueCol    int
}

// Apply implements Fold.
func (f *Grouped) Apply(s *Scope, r row.Row) error {
	l, err := s.Doc.ListAt(f.Target)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	key, err := compositeKey(r, f.Key)
	if err != nil {
		return &domain.RowError{Field: f.Target, Err: err}
	}
	var group *document.Record
	if v, ok := l.Find(key); ok {
		group = v.(*document.Record)
	} else {
		group = document.NewRecord()
		if err := setFields(group, f.Fields, r); err != nil {
			return err
		}
		group.Set(document.TypesKey, document.NewList())
		l.Add(key, group)
	}
	return addCategory(s, group, f.Target, f.CategoryCol, f.ValueCol, r)
}

func addCategory(s *Scope, host *document.Record, target string, catCol, valCol int, r row.Row) error {
	cat, ok := r.Key(catCol)
	if !ok {
		if _, err := r.Get(catCol); err != nil {
			return &domain.RowError{Field: target, Err: err}
		}
		return nil
	}
	val, err := Field{Path: target, Col: valCol, Coerce: row.AsString}.value(r)
	if err != nil {
		return err
	}
	c, err := s.categories(host)
	if err != nil {
		return &domain.RowError{Field: target, Err: err}
	}
	if err := c.Add(cat, val); err != nil {
		return &domain.RowError{Field: target, Err: err}
	}
	return nil
}

// Length stores len(list at Of) at Target.
type Length struct {
	Target string
	Of     string
}

// Derive implements Derivation.
func (d *Length) Derive(doc *document.Record) error {
	l, err := doc.ListAt(d.Of)
	if err != nil {
		return fmt.Errorf("derive %s: %w", d.Target, err)
	}
	if err := doc.SetPath(d.Target, int64(l.Len())); err != nil {
		return fmt.Errorf("derive %s: %w", d.Target, err)
	}
	return nil
}

func compositeKey(r row.Row, cols []int) (string, error) {
	parts := make([]any, len(cols))
	for i, c := range cols {
		v, err := r.Get(c)
		if err != nil {
			return "", err
		}
		parts[i] = row.Normalize(v)
	}
	return document.CompositeKey(parts...), nil
}
