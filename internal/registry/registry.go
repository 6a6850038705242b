package registry

import (
	"maps"
	"slices"

	"github.com/roach88/patchwork/internal/unit"
)

// Registry is the extension registry shared by the runtime and the engine.
type Registry struct {
	table       *Table
	chains      map[unit.Path][]*unit.Unit     // target -> [pristine, ext1, ..., extN]
	targets     map[unit.Path]unit.Path        // extension origin -> target
	attribution map[unit.PackageID][]unit.Path // package -> extension origins, recorded order
	owners      map[unit.Path]unit.PackageID   // extension origin -> package
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset drops every binding, chain and attribution record.
func (r *Registry) Reset() {
	r.table = NewTable()
	r.chains = make(map[unit.Path][]*unit.Unit)
	r.targets = make(map[unit.Path]unit.Path)
	r.attribution = make(map[unit.PackageID][]unit.Path)
	r.owners = make(map[unit.Path]unit.PackageID)
}

// Table returns the identity binding table.
func (r *Registry) Table() *Table {
	return r.table
}

// =============================================================================
// Saved chains
// =============================================================================

// Chain returns a copy of the saved chain for target. present is false when
// the target is unpatched.
func (r *Registry) Chain(target unit.Path) (chain []*unit.Unit, present bool) {
	c, ok := r.chains[target]
	if !ok {
		return nil, false
	}
	return slices.Clone(c), true
}

// Pristine returns chain[0] for a patched target.
func (r *Registry) Pristine(target unit.Path) (*unit.Unit, bool) {
	c, ok := r.chains[target]
	if !ok || len(c) == 0 {
		return nil, false
	}
	return c[0], true
}

// IsPatched reports whether target has a saved chain.
func (r *Registry) IsPatched(target unit.Path) bool {
	_, ok := r.chains[target]
	return ok
}

// StartChain creates the chain for target with its pristine snapshot. It is a
// no-op when a chain already exists.
func (r *Registry) StartChain(target unit.Path, pristine *unit.Unit) {
	if _, ok := r.chains[target]; ok {
		return
	}
	r.chains[target] = []*unit.Unit{pristine}
}

// AppendChain appends an applied extension to target's chain and returns the
// number of non-pristine entries afterwards. The chain must exist.
func (r *Registry) AppendChain(target unit.Path, u *unit.Unit) int {
	r.chains[target] = append(r.chains[target], u)
	r.targets[u.Origin()] = target
	return len(r.chains[target]) - 1
}

// EraseChain removes target's chain and forgets the targets recorded for its
// extensions.
func (r *Registry) EraseChain(target unit.Path) {
	for _, u := range r.chains[target] {
		if r.targets[u.Origin()] == target {
			delete(r.targets, u.Origin())
		}
	}
	delete(r.chains, target)
}

// PatchedTargets returns every target with a saved chain, sorted.
func (r *Registry) PatchedTargets() []unit.Path {
	return slices.Sorted(maps.Keys(r.chains))
}

// Extensions returns the origin paths of target's applied extensions in
// application order.
func (r *Registry) Extensions(target unit.Path) []unit.Path {
	c := r.chains[target]
	if len(c) < 2 {
		return nil
	}
	out := make([]unit.Path, 0, len(c)-1)
	for _, u := range c[1:] {
		out = append(out, u.Origin())
	}
	return out
}

// TargetOf returns the target an applied extension was chained onto.
func (r *Registry) TargetOf(ext unit.Path) (unit.Path, bool) {
	t, ok := r.targets[ext]
	return t, ok
}

// =============================================================================
// Package attribution
// =============================================================================

// Attribute records that pkg contributed ext. Recording the same pair twice
// keeps the original position.
func (r *Registry) Attribute(pkg unit.PackageID, ext unit.Path) {
	if slices.Contains(r.attribution[pkg], ext) {
		return
	}
	r.attribution[pkg] = append(r.attribution[pkg], ext)
	r.owners[ext] = pkg
}

// Attributed returns the extensions recorded for pkg in recorded order.
func (r *Registry) Attributed(pkg unit.PackageID) []unit.Path {
	return slices.Clone(r.attribution[pkg])
}

// OwnerOf returns the package recorded for ext.
func (r *Registry) OwnerOf(ext unit.Path) (unit.PackageID, bool) {
	pkg, ok := r.owners[ext]
	return pkg, ok
}

// DropAttribution forgets that pkg contributed ext.
func (r *Registry) DropAttribution(pkg unit.PackageID, ext unit.Path) {
	exts := slices.DeleteFunc(r.attribution[pkg], func(p unit.Path) bool { return p == ext })
	if len(exts) == 0 {
		delete(r.attribution, pkg)
	} else {
		r.attribution[pkg] = exts
	}
	if r.owners[ext] == pkg {
		delete(r.owners, ext)
	}
}

// Packages returns every package with attribution records, sorted.
func (r *Registry) Packages() []unit.PackageID {
	return slices.Sorted(maps.Keys(r.attribution))
}
