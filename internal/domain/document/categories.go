package document

import (
	"errors"
	"fmt"
)

// TypesKey names the list of discovered categories.
const TypesKey = "dataTypes"

// ErrReservedCategory signals a category name that collides with a declared field.
var ErrReservedCategory = errors.New("category collides with a declared field")

// Categories maintains the dynamic-key family inside a host record: a dataTypes
// list naming each discovered category, and one value list per category keyed by
// the category name. Keys are created on first sight.
type Categories struct {
	host  *Record
	types *List
	lists map[string]*List
}

// NewCategories binds to host, creating an empty dataTypes list if absent.
func NewCategories(host *Record) (*Categories, error) {
	c := &Categories{host: host, lists: make(map[string]*List)}
	v, ok := host.Get(TypesKey)
	switch l := v.(type) {
	case *List:
		c.types = l
	case nil:
		c.types = NewList()
		host.Set(TypesKey, c.types)
	default:
		return nil, fmt.Errorf("%w: %q holds %T", ErrReservedCategory, TypesKey, v)
	}
	if ok && c.types.Len() > 0 {
		for _, name := range c.types.Strings() {
			if cl, isList := host.vals[name].(*List); isList {
				c.lists[name] = cl
			}
		}
	}
	return c, nil
}

// Add records value under category. A nil value registers the category only.
func (c *Categories) Add(category string, value any) error {
	l, ok := c.lists[category]
	if !ok {
		if category == TypesKey || c.host.Has(category) {
			return fmt.Errorf("%w: %q", ErrReservedCategory, category)
		}
		l = NewList()
		c.lists[category] = l
		c.host.Set(category, l)
		c.types.Add(category, category)
	}
	if value != nil {
		l.Add(CompositeKey(value), value)
	}
	return nil
}

// Types returns discovered categories in order.
func (c *Categories) Types() []string { return c.types.Strings() }

// Values returns the values recorded for category.
func (c *Categories) Values(category string) []any {
	l, ok := c.lists[category]
	if !ok {
		return nil
	}
	return l.Items()
}
