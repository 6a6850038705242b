package unit

import (
	"maps"
	"slices"
	"strings"
)

// Path is a normalized storage path. It is the identity of a unit in the
// binding table.
type Path string

// PackageID identifies a source package (a mod) in the load order.
type PackageID string

// MetaOrigin is the metadata key holding the storage path a unit was
// originally loaded from. It survives identity takeover.
const MetaOrigin = "origin"

// Definition is the raw, stored form of a unit.
type Definition struct {
	Path    Path              `json:"path"`
	Base    Path              `json:"base,omitempty"`    // Declared base storage path, empty for roots
	Methods map[string]string `json:"methods,omitempty"` // method name -> body
}

// Unit is a loaded behavioral definition.
//
// Units are immutable: the loader builds one from a Definition and nothing
// modifies it afterwards. The parent a unit resolves to is the runtime's
// compiled link for it, looked up through the binding table by Base.
type Unit struct {
	Path    Path              `json:"path"`
	Base    Path              `json:"base,omitempty"`
	Methods map[string]string `json:"methods,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// NewUnit builds a unit from a stored definition and attaches its origin
// metadata. Maps are copied so later edits to the definition cannot leak in.
func NewUnit(def Definition) *Unit {
	return &Unit{
		Path:    def.Path,
		Base:    def.Base,
		Methods: maps.Clone(def.Methods),
		Meta:    map[string]string{MetaOrigin: string(def.Path)},
	}
}

// Origin returns the storage path the unit was loaded from.
func (u *Unit) Origin() Path {
	if o, ok := u.Meta[MetaOrigin]; ok {
		return Path(o)
	}
	return u.Path
}

// IsRoot reports whether the unit declares no base.
func (u *Unit) IsRoot() bool {
	return u.Base == ""
}

// Method returns the body of a method defined directly on this unit.
func (u *Unit) Method(name string) (string, bool) {
	body, ok := u.Methods[name]
	return body, ok
}

// MethodNames returns the unit's own method names in sorted order.
func (u *Unit) MethodNames() []string {
	return slices.Sorted(maps.Keys(u.Methods))
}

func (u *Unit) String() string {
	if u == nil {
		return "<nil>"
	}
	if u.Base == "" {
		return string(u.Origin())
	}
	return string(u.Origin()) + " extends " + string(u.Base)
}

// Descriptor names one extension contributed by a package. Its target is not
// declared: it is whatever path its parent is bound at when it is loaded.
type Descriptor struct {
	Path    Path      `json:"path"`
	Package PackageID `json:"package"`
}

func (d Descriptor) String() string {
	return string(d.Package) + ":" + string(d.Path)
}

// LoadOrder is the externally owned total order over source packages.
type LoadOrder []PackageID

// Position returns the index of id in the load order. Duplicated ids resolve
// to their first occurrence.
func (lo LoadOrder) Position(id PackageID) (int, bool) {
	i := slices.Index(lo, id)
	return i, i >= 0
}

// Contains reports whether id appears in the load order.
func (lo LoadOrder) Contains(id PackageID) bool {
	_, ok := lo.Position(id)
	return ok
}

func (lo LoadOrder) String() string {
	ids := make([]string, len(lo))
	for i, id := range lo {
		ids[i] = string(id)
	}
	return "[" + strings.Join(ids, ", ") + "]"
}
