package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// List is an ordered collection that appends an item only once per dedup key.
type List struct {
	items []any
	index map[string]int
}

// NewList creates an empty list.
func NewList() *List {
	return &List{index: make(map[string]int)}
}

// Add appends item unless key was already added. Reports whether it appended.
func (l *List) Add(key string, item any) bool {
	if _, ok := l.index[key]; ok {
		return false
	}
	l.index[key] = len(l.items)
	l.items = append(l.items, item)
	return true
}

// Find returns the item added under key.
func (l *List) Find(key string) (any, bool) {
	i, ok := l.index[key]
	if !ok {
		return nil, false
	}
	return l.items[i], true
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Items returns a copy of the items.
func (l *List) Items() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Strings returns items rendered as strings.
func (l *List) Strings() []string {
	out := make([]string, len(l.items))
	for i, it := range l.items {
		if s, ok := it.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(it)
	}
	return out
}

// MarshalJSON renders the items; an empty list renders as [].
func (l *List) MarshalJSON() ([]byte, error) {
	if len(l.items) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

// keySep cannot appear in source text columns.
const keySep = "\x1f"

// CompositeKey joins values into a dedup key. Null and empty string stay distinct.
func CompositeKey(parts ...any) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString(keySep)
		}
		if p == nil {
			b.WriteString("\x00")
			continue
		}
		fmt.Fprintf(&b, "%T:%v", p, p)
	}
	return b.String()
}
