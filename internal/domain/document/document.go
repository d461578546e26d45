// Package document holds the nested, key-ordered document model shared by all entity kinds.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrPath signals a dotted path that does not resolve to a nested record.
var ErrPath = errors.New("invalid document path")

// Document is one built document and its stable identifier.
type Document struct {
	ID   string
	Body *Record
}

// MarshalJSON renders the document body.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Body == nil {
		return []byte("{}"), nil
	}
	return d.Body.MarshalJSON()
}

// Record is a JSON object whose keys keep their first-insertion order.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord creates a record with the given keys initialized to null.
func NewRecord(keys ...string) *Record {
	r := &Record{vals: make(map[string]any, len(keys))}
	for _, k := range keys {
		r.Set(k, nil)
	}
	return r
}

// Set stores v under key. Existing keys keep their position.
func (r *Record) Set(key string, v any) {
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Has reports whether key is present (null values count as present).
func (r *Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Keys returns the keys in order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// Resolve walks a dotted path and returns the record holding the last segment.
// "a.b.c" returns the record at a.b and "c".
func (r *Record) Resolve(path string) (*Record, string, error) {
	parts := strings.Split(path, ".")
	cur := r
	for _, p := range parts[:len(parts)-1] {
		v, ok := cur.vals[p]
		if !ok {
			return nil, "", fmt.Errorf("%w: %q: missing %q", ErrPath, path, p)
		}
		next, ok := v.(*Record)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q: %q is not a record", ErrPath, path, p)
		}
		cur = next
	}
	return cur, parts[len(parts)-1], nil
}

// SetPath stores v at a dotted path. Intermediate records must exist.
func (r *Record) SetPath(path string, v any) error {
	host, leaf, err := r.Resolve(path)
	if err != nil {
		return err
	}
	host.Set(leaf, v)
	return nil
}

// Lookup returns the value at a dotted path.
func (r *Record) Lookup(path string) (any, bool) {
	host, leaf, err := r.Resolve(path)
	if err != nil {
		return nil, false
	}
	return host.Get(leaf)
}

// RecordAt returns the nested record at a dotted path ("" is r itself).
func (r *Record) RecordAt(path string) (*Record, error) {
	if path == "" {
		return r, nil
	}
	v, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q: missing", ErrPath, path)
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a record", ErrPath, path)
	}
	return rec, nil
}

// ListAt returns the list at a dotted path.
func (r *Record) ListAt(path string) (*List, error) {
	v, ok := r.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %q: missing", ErrPath, path)
	}
	l, ok := v.(*List)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrPath, path)
	}
	return l, nil
}

// MarshalJSON renders the record with keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
