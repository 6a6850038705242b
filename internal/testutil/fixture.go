// Package testutil provides fixtures shared by package tests and the
// conformance harness.
package testutil

import (
	"path"

	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/unit"
)

// World is an in-memory world for tests: storage, class metadata, extension
// descriptors and a load order.
//
// It implements engine.LoadOrderProvider and engine.Discovery.
type World struct {
	Source   *runtime.MemSource
	Classes  *runtime.ClassIndex
	ModsRoot string

	order unit.LoadOrder
	descs []unit.Descriptor
}

// NewWorld creates an empty world rooted at unit.DefaultModsRoot.
func NewWorld() *World {
	return &World{
		Source:   runtime.NewMemSource(),
		Classes:  runtime.NewClassIndex(),
		ModsRoot: unit.DefaultModsRoot,
	}
}

// Def builds a definition from alternating method name/body pairs.
//
//	Def("res/root", "", "greet", "root")
func Def(p, base string, methods ...string) unit.Definition {
	m := make(map[string]string, len(methods)/2)
	for i := 0; i+1 < len(methods); i += 2 {
		m[methods[i]] = methods[i+1]
	}
	return unit.Definition{Path: unit.CleanPath(p), Base: unit.CleanPath(base), Methods: m}
}

// Unit adds a base unit to storage and class metadata.
func (w *World) Unit(p, base string, methods ...string) *World {
	d := Def(p, base, methods...)
	w.Source.Put(d)
	w.Classes.Add(runtime.ClassEntry{Path: d.Path, Base: d.Base})
	return w
}

// Extension adds the extension <mods root>/<pkg>/<name> extending base and
// registers its descriptor. Extensions are not class metadata.
func (w *World) Extension(pkg, name, base string, methods ...string) unit.Path {
	d := Def(path.Join(w.ModsRoot, pkg, name), base, methods...)
	w.Source.Put(d)
	w.descs = append(w.descs, unit.Descriptor{Path: d.Path, Package: unit.PackageID(pkg)})
	return d.Path
}

// WithLoadOrder sets the load order.
func (w *World) WithLoadOrder(ids ...string) *World {
	w.order = make(unit.LoadOrder, len(ids))
	for i, id := range ids {
		w.order[i] = unit.PackageID(id)
	}
	return w
}

// LoadOrder returns the configured load order.
func (w *World) LoadOrder() unit.LoadOrder {
	return w.order
}

// PackageOf derives the package from the path below the mods root.
func (w *World) PackageOf(p unit.Path) (unit.PackageID, bool) {
	return unit.PackageFromPath(p, w.ModsRoot)
}

// Descriptors returns extension descriptors in registration order.
func (w *World) Descriptors() []unit.Descriptor {
	out := make([]unit.Descriptor, len(w.descs))
	copy(out, w.descs)
	return out
}

// Scenario builds the reference world:
//
//	res/root <- res/child <- res/grandchild
//	M1:e1 -> root, M2:e2 -> child, M3:e3 -> root
//	load order [M2, M1, M3]
func Scenario() *World {
	w := NewWorld().
		Unit("res/root", "", "greet", "root", "name", "root").
		Unit("res/child", "res/root", "greet", "child>{super}").
		Unit("res/grandchild", "res/child", "greet", "grandchild>{super}")
	w.Extension("M1", "e1", "res/root", "greet", "e1>{super}")
	w.Extension("M2", "e2", "res/child", "greet", "e2>{super}")
	w.Extension("M3", "e3", "res/root", "greet", "e3>{super}")
	return w.WithLoadOrder("M2", "M1", "M3")
}
