// Package entity describes each root entity kind declaratively: its positional
// field mapping, default template, relationship folds and dedup keys. One engine
// (usecase/build) interprets every descriptor.
package entity

import (
	"fmt"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
)

// KeyCol is the column carrying the root key, in root rows and relation rows alike.
const KeyCol = 0

// Coerce converts a normalized source value into its document value.
type Coerce func(any) (any, error)

// Field maps one row column onto a dotted document path.
type Field struct {
	Path   string
	Col    int
	Coerce Coerce // nil passes the value through
}

func (f Field) value(r row.Row) (any, error) {
	v, err := r.Get(f.Col)
	if err != nil {
		return nil, &domain.RowError{Field: f.Path, Err: err}
	}
	c := f.Coerce
	if c == nil {
		c = row.AsRaw
	}
	out, err := c(v)
	if err != nil {
		return nil, &domain.RowError{Field: f.Path, Err: err}
	}
	return out, nil
}

// Relation is one relationship query and the folds applied to each of its rows.
type Relation struct {
	Name  string
	Folds []Fold
}

// Descriptor is the complete build recipe for one entity kind.
type Descriptor struct {
	Kind      domain.Kind
	Index     string
	IDCol     int
	Template  func() *document.Record
	Fields    []Field
	Relations []Relation
	Derived   []Derivation
}

// DeclaredKeys returns the top-level keys every document of this kind carries.
func (d *Descriptor) DeclaredKeys() []string {
	return d.Template().Keys()
}

// RelationNames lists relation names in fold order.
func (d *Descriptor) RelationNames() []string {
	out := make([]string, len(d.Relations))
	for i, r := range d.Relations {
		out[i] = r.Name
	}
	return out
}

// Overlay applies the root field mapping onto doc.
func (d *Descriptor) Overlay(doc *document.Record, r row.Row) error {
	return setFields(doc, d.Fields, r)
}

func setFields(rec *document.Record, fields []Field, r row.Row) error {
	for _, f := range fields {
		v, err := f.value(r)
		if err != nil {
			return err
		}
		if err := rec.SetPath(f.Path, v); err != nil {
			return &domain.RowError{Field: f.Path, Err: err}
		}
	}
	return nil
}

var registry = map[domain.Kind]*Descriptor{}

func register(d *Descriptor) *Descriptor {
	if _, dup := registry[d.Kind]; dup {
		panic(fmt.Sprintf("entity: duplicate descriptor for %s", d.Kind))
	}
	registry[d.Kind] = d
	return d
}

// Lookup returns the descriptor registered for kind.
func Lookup(kind domain.Kind) (*Descriptor, error) {
	d, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return d, nil
}
