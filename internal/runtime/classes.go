package runtime

import (
	"slices"

	"github.com/roach88/patchwork/internal/unit"
)

// ClassEntry is one (path, declared base) pair from the class metadata
// registry.
type ClassEntry struct {
	Path unit.Path
	Base unit.Path
}

// ClassIndex indexes known units by declared base so the engine finds the
// direct children of a rebound path without scanning every entry.
//
// The index is built once from the class metadata and updated incrementally
// with Add.
type ClassIndex struct {
	bases    map[unit.Path]unit.Path
	children map[unit.Path][]unit.Path
	order    []unit.Path
}

// NewClassIndex builds an index from entries.
func NewClassIndex(entries ...ClassEntry) *ClassIndex {
	c := &ClassIndex{
		bases:    make(map[unit.Path]unit.Path),
		children: make(map[unit.Path][]unit.Path),
	}
	for _, e := range entries {
		c.Add(e)
	}
	return c
}

// Add registers e. Re-adding a path with a different base moves it.
func (c *ClassIndex) Add(e ClassEntry) {
	if old, ok := c.bases[e.Path]; ok {
		if old == e.Base {
			return
		}
		c.children[old] = slices.DeleteFunc(c.children[old], func(p unit.Path) bool { return p == e.Path })
		if len(c.children[old]) == 0 {
			delete(c.children, old)
		}
	} else {
		c.order = append(c.order, e.Path)
	}
	c.bases[e.Path] = e.Base
	if e.Base != "" {
		c.children[e.Base] = append(c.children[e.Base], e.Path)
	}
}

// Children returns the paths whose declared base is base, in registration
// order.
func (c *ClassIndex) Children(base unit.Path) []unit.Path {
	return slices.Clone(c.children[base])
}

// BaseOf returns the declared base of p.
func (c *ClassIndex) BaseOf(p unit.Path) (unit.Path, bool) {
	b, ok := c.bases[p]
	return b, ok
}

// Entries returns every entry in registration order.
func (c *ClassIndex) Entries() []ClassEntry {
	out := make([]ClassEntry, 0, len(c.order))
	for _, p := range c.order {
		out = append(out, ClassEntry{Path: p, Base: c.bases[p]})
	}
	return out
}

// Len returns the number of indexed paths.
func (c *ClassIndex) Len() int {
	return len(c.order)
}
