package registry

import (
	"maps"
	"slices"

	"github.com/roach88/patchwork/internal/unit"
)

// Table is the identity binding table: storage path -> currently bound unit.
//
// It also remembers, for every unit that was ever bound, the last path it was
// bound at. That reverse mapping is how a displaced unit (the pristine base
// under a chain of extensions) still answers "which path am I?".
type Table struct {
	bound    map[unit.Path]*unit.Unit
	identity map[*unit.Unit]unit.Path
}

// NewTable creates an empty binding table.
func NewTable() *Table {
	return &Table{
		bound:    make(map[unit.Path]*unit.Unit),
		identity: make(map[*unit.Unit]unit.Path),
	}
}

// Lookup returns the unit bound at p.
func (t *Table) Lookup(p unit.Path) (*unit.Unit, bool) {
	u, ok := t.bound[p]
	return u, ok
}

// Bind binds u at p, replacing whatever was bound there.
func (t *Table) Bind(p unit.Path, u *unit.Unit) {
	t.bound[p] = u
	t.identity[u] = p
}

// Takeover rebinds target to u. If u is still bound at its previous path,
// that binding is released, so a later load of that path reads storage again.
func (t *Table) Takeover(target unit.Path, u *unit.Unit) {
	if prev, ok := t.identity[u]; ok && prev != target && t.bound[prev] == u {
		delete(t.bound, prev)
	}
	t.Bind(target, u)
}

// PathOf returns the path u is (or was last) bound at. Units that were never
// bound answer with their origin path.
func (t *Table) PathOf(u *unit.Unit) unit.Path {
	if p, ok := t.identity[u]; ok {
		return p
	}
	return u.Origin()
}

// Paths returns all bound paths in sorted order.
func (t *Table) Paths() []unit.Path {
	return slices.Sorted(maps.Keys(t.bound))
}

// Len returns the number of bound paths.
func (t *Table) Len() int {
	return len(t.bound)
}
