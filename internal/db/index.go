package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash stores documents as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON stores documents as JSON.
	StorageJSON StorageType = "JSON"
)

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldNumeric is a numeric field.
	IndexFieldNumeric IndexFieldType = iota
	// IndexFieldTag is a tag field.
	IndexFieldTag
	// IndexFieldText is a text field.
	IndexFieldText
)

// IndexField describes a single field in an FT index schema.
type IndexField struct {
	Name  string
	Alias string // AS alias in FT.CREATE SCHEMA
	Type  IndexFieldType

	// TAG options
	TagSeparator     string
	TagCaseSensitive bool
}

// IndexDefinition is a complete index definition. Body is the settings/mappings
// descriptor sent verbatim to document stores that accept it; Fields is its
// flattened form for FT.CREATE.
type IndexDefinition struct {
	Name        string
	Body        json.RawMessage
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field name is required at index %d", i)
		}
		key := f.Name
		if f.Alias != "" {
			key = f.Alias
		}
		if seen[key] {
			return errors.New("duplicate field name: " + key)
		}
		seen[key] = true
	}

	return nil
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}

// Descriptor is the settings/mappings document that defines an index.
type Descriptor struct {
	Settings map[string]any `json:"settings,omitempty"`
	Mappings Mapping        `json:"mappings"`
}

// Mapping is the properties tree of a descriptor.
type Mapping struct {
	Properties map[string]Property `json:"properties"`
}

// Property is one mapped field. Object and nested properties carry children.
type Property struct {
	Type       string              `json:"type,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
}

// ParseDescriptor decodes and sanity-checks a settings/mappings descriptor.
func ParseDescriptor(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	if len(d.Mappings.Properties) == 0 {
		return nil, errors.New("descriptor has no mappings.properties")
	}
	return &d, nil
}

// NewIndexDefinition builds an index definition for name from a raw descriptor.
// Only the descriptor's shape is checked; its content is sent verbatim to
// stores that accept settings/mappings bodies.
func NewIndexDefinition(name string, raw []byte) (*IndexDefinition, error) {
	if name == "" {
		return nil, errors.New("index name is required")
	}
	if _, err := ParseDescriptor(raw); err != nil {
		return nil, err
	}
	return &IndexDefinition{Name: name, Body: json.RawMessage(raw), StorageType: StorageJSON}, nil
}

// WithSchema returns a validated copy of idx carrying FT fields. Without
// explicit fields they are translated from the mapped properties of Body:
// keyword to TAG, text to TEXT, numeric types to NUMERIC. Object properties are
// flattened and nested ones address every array element.
func (idx *IndexDefinition) WithSchema() (*IndexDefinition, error) {
	b := &IndexBuilder{def: *idx}
	b.def.Prefixes = append([]string(nil), idx.Prefixes...)
	b.def.Fields = append([]IndexField(nil), idx.Fields...)
	if len(b.def.Fields) == 0 && len(idx.Body) > 0 {
		d, err := ParseDescriptor(idx.Body)
		if err != nil {
			return nil, err
		}
		flatten(b, "$", "", d.Mappings.Properties)
	}
	return b.Build()
}

func flatten(b *IndexBuilder, path, alias string, props map[string]Property) {
	names := make([]string, 0, len(props))
	for n := range props {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		p := props[n]
		fieldPath := path + "." + n
		fieldAlias := n
		if alias != "" {
			fieldAlias = alias + "_" + n
		}
		switch p.Type {
		case "", "object":
			flatten(b, fieldPath, fieldAlias, p.Properties)
		case "nested":
			flatten(b, fieldPath+"[*]", fieldAlias, p.Properties)
		case "keyword", "boolean":
			b.TagAs(fieldPath, fieldAlias)
		case "text":
			b.TextAs(fieldPath, fieldAlias)
		default:
			if isNumeric(p.Type) {
				b.NumericAs(fieldPath, fieldAlias)
			}
		}
	}
}

func isNumeric(t string) bool {
	switch strings.ToLower(t) {
	case "long", "integer", "short", "byte", "double", "float", "half_float", "scaled_float":
		return true
	}
	return false
}
