package world

import (
	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/unit"
)

// Extension is one extension declared by a package.
type Extension struct {
	unit.Definition
	Package unit.PackageID
}

// Package is one declared extension package.
type Package struct {
	ID         unit.PackageID
	Extensions []unit.Path
}

// World is a loaded world definition.
//
// It implements engine.LoadOrderProvider and engine.Discovery. Source and
// Classes are built once at load time and shared by every caller.
type World struct {
	modsRoot   string
	order      unit.LoadOrder
	units      []unit.Definition
	packages   []Package
	extensions []Extension

	source  *runtime.MemSource
	classes *runtime.ClassIndex
}

func newWorld() *World {
	return &World{
		modsRoot: unit.DefaultModsRoot,
		source:   runtime.NewMemSource(),
		classes:  runtime.NewClassIndex(),
	}
}

// ModsRoot returns the directory extension packages live under.
func (w *World) ModsRoot() string {
	return w.modsRoot
}

// Source returns the storage holding every unit and extension.
func (w *World) Source() *runtime.MemSource {
	return w.source
}

// Classes returns the class metadata of the base units.
func (w *World) Classes() *runtime.ClassIndex {
	return w.classes
}

// LoadOrder returns the declared load order.
func (w *World) LoadOrder() unit.LoadOrder {
	return w.order
}

// PackageOf derives an extension's package from its path below the mods root.
func (w *World) PackageOf(p unit.Path) (unit.PackageID, bool) {
	return unit.PackageFromPath(p, w.modsRoot)
}

// Descriptors returns every extension descriptor in package declaration
// order, then extension declaration order.
func (w *World) Descriptors() []unit.Descriptor {
	out := make([]unit.Descriptor, 0, len(w.extensions))
	for _, e := range w.extensions {
		out = append(out, unit.Descriptor{Path: e.Path, Package: e.Package})
	}
	return out
}

// Units returns the base unit definitions in declaration order.
func (w *World) Units() []unit.Definition {
	out := make([]unit.Definition, len(w.units))
	copy(out, w.units)
	return out
}

// Packages returns the declared packages in declaration order.
func (w *World) Packages() []Package {
	out := make([]Package, len(w.packages))
	copy(out, w.packages)
	return out
}

// Extensions returns every extension in descriptor order.
func (w *World) Extensions() []Extension {
	out := make([]Extension, len(w.extensions))
	copy(out, w.extensions)
	return out
}

func (w *World) addUnit(d unit.Definition) {
	w.units = append(w.units, d)
	w.source.Put(d)
	w.classes.Add(runtime.ClassEntry{Path: d.Path, Base: d.Base})
}

func (w *World) addExtension(e Extension) {
	w.extensions = append(w.extensions, e)
	w.source.Put(e.Definition)
}
