package model

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Children maps child names to nodes, preserving insertion order both when
// iterating and when encoded as JSON.
type Children struct {
	m *orderedmap.OrderedMap[string, *Node]
}

// NewChildren returns an empty child mapping.
func NewChildren() *Children {
	return &Children{m: orderedmap.New[string, *Node]()}
}

// Set adds or replaces a child. Replacing keeps the original position.
func (c *Children) Set(name string, n *Node) {
	c.m.Set(name, n)
}

// Get returns the named child.
func (c *Children) Get(name string) (*Node, bool) {
	if c == nil {
		return nil, false
	}
	return c.m.Get(name)
}

// Len returns the number of children.
func (c *Children) Len() int {
	if c == nil {
		return 0
	}
	return c.m.Len()
}

// Names returns child names in insertion order.
func (c *Children) Names() []string {
	names := make([]string, 0, c.Len())
	for name := range c.All() {
		names = append(names, name)
	}
	return names
}

// All iterates over children in insertion order.
func (c *Children) All() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if c == nil {
			return
		}
		for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Equal reports whether both mappings hold equal children in the same order.
func (c *Children) Equal(o *Children) bool {
	if c == nil || o == nil {
		return c == nil && o == nil
	}
	if c.Len() != o.Len() {
		return false
	}
	a, b := c.m.Oldest(), o.m.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the children as a JSON object in insertion order.
func (c *Children) MarshalJSON() ([]byte, error) {
	return c.m.MarshalJSON()
}

func (c *Children) field(name string) (any, bool) {
	return c.Get(name)
}
