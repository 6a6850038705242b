package runtime

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/patchwork/internal/unit"
)

// ErrNotFound is returned when a storage path has no definition.
var ErrNotFound = errors.New("storage path not found")

// Source is the storage service units are loaded from.
type Source interface {
	Exists(p unit.Path) bool
	Read(p unit.Path) (unit.Definition, error)
}

// MemSource is an in-memory Source. Definitions keep their insertion order.
type MemSource struct {
	defs  map[unit.Path]unit.Definition
	order []unit.Path
}

// NewMemSource creates a source holding defs.
func NewMemSource(defs ...unit.Definition) *MemSource {
	s := &MemSource{defs: make(map[unit.Path]unit.Definition)}
	for _, def := range defs {
		s.Put(def)
	}
	return s
}

// Put stores def, replacing any definition at the same path.
func (s *MemSource) Put(def unit.Definition) {
	if _, ok := s.defs[def.Path]; !ok {
		s.order = append(s.order, def.Path)
	}
	s.defs[def.Path] = def
}

// Delete removes the definition at p.
func (s *MemSource) Delete(p unit.Path) {
	if _, ok := s.defs[p]; !ok {
		return
	}
	delete(s.defs, p)
	s.order = slices.DeleteFunc(s.order, func(q unit.Path) bool { return q == p })
}

// Exists reports whether p has a definition.
func (s *MemSource) Exists(p unit.Path) bool {
	_, ok := s.defs[p]
	return ok
}

// Read returns the definition at p.
func (s *MemSource) Read(p unit.Path) (unit.Definition, error) {
	def, ok := s.defs[p]
	if !ok {
		return unit.Definition{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return def, nil
}

// Paths returns all stored paths in insertion order.
func (s *MemSource) Paths() []unit.Path {
	return slices.Clone(s.order)
}
