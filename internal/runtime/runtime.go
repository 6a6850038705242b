package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/patchwork/internal/registry"
	"github.com/roach88/patchwork/internal/unit"
)

// SuperToken is replaced in a method body by the parent's result.
const SuperToken = "{super}"

var (
	// ErrNoMethod is returned when no unit in the parent chain defines a method.
	ErrNoMethod = errors.New("method not defined")

	// ErrCyclicLink is returned when parent links loop back on themselves.
	ErrCyclicLink = errors.New("cyclic parent link")
)

// Runtime loads units by path through the binding table and maintains their
// compiled parent links.
//
// Not safe for concurrent use.
type Runtime struct {
	source   Source
	table    *registry.Table
	links    map[*unit.Unit]*unit.Unit // compiled unit -> parent (nil for roots)
	compiles int
}

// New creates a runtime reading from source and binding into table.
func New(source Source, table *registry.Table) *Runtime {
	return &Runtime{
		source: source,
		table:  table,
		links:  make(map[*unit.Unit]*unit.Unit),
	}
}

// Exists reports whether p is present in storage.
func (r *Runtime) Exists(p unit.Path) bool {
	return r.source.Exists(p)
}

// Load returns the unit bound at p, reading and binding it from storage when
// nothing is bound there yet. The returned unit is not compiled.
func (r *Runtime) Load(p unit.Path) (*unit.Unit, error) {
	if u, ok := r.table.Lookup(p); ok {
		return u, nil
	}
	def, err := r.source.Read(p)
	if err != nil {
		return nil, err
	}
	u := unit.NewUnit(def)
	r.table.Bind(p, u)
	return u, nil
}

// Compile (re)resolves u's parent link to whatever is currently bound at its
// declared base. Compiling an already compiled unit refreshes the link.
func (r *Runtime) Compile(u *unit.Unit) error {
	r.compiles++
	if u.IsRoot() {
		r.links[u] = nil
		return nil
	}
	parent, err := r.Load(u.Base)
	if err != nil {
		return fmt.Errorf("compile %s: %w", u.Origin(), err)
	}
	if parent == u {
		return fmt.Errorf("compile %s: %w: unit is bound at its own base %s", u.Origin(), ErrCyclicLink, u.Base)
	}
	r.links[u] = parent
	return nil
}

// IsCompiled reports whether u has a resolved parent link.
func (r *Runtime) IsCompiled(u *unit.Unit) bool {
	_, ok := r.links[u]
	return ok
}

// Parent returns u's compiled parent link. ok is false for roots and for
// units that were never compiled.
func (r *Runtime) Parent(u *unit.Unit) (parent *unit.Unit, ok bool) {
	parent = r.links[u]
	return parent, parent != nil
}

// PathOf returns the path u is bound at (or was last bound at).
func (r *Runtime) PathOf(u *unit.Unit) unit.Path {
	return r.table.PathOf(u)
}

// Compiles returns how many times Compile has run. Used by tests.
func (r *Runtime) Compiles() int {
	return r.compiles
}

// Call dispatches method on the unit bound at p.
func (r *Runtime) Call(p unit.Path, method string) (string, error) {
	u, err := r.Load(p)
	if err != nil {
		return "", err
	}
	return r.dispatch(u, method, make(map[*unit.Unit]bool))
}

func (r *Runtime) dispatch(u *unit.Unit, method string, seen map[*unit.Unit]bool) (string, error) {
	if seen[u] {
		return "", fmt.Errorf("%s.%s: %w", u.Origin(), method, ErrCyclicLink)
	}
	seen[u] = true

	if !r.IsCompiled(u) {
		if err := r.Compile(u); err != nil {
			return "", err
		}
	}
	parent := r.links[u]

	body, ok := u.Method(method)
	if !ok {
		if parent == nil {
			return "", fmt.Errorf("%s.%s: %w", u.Origin(), method, ErrNoMethod)
		}
		return r.dispatch(parent, method, seen)
	}
	if !strings.Contains(body, SuperToken) {
		return body, nil
	}
	if parent == nil {
		return "", fmt.Errorf("%s.%s calls %s: %w", u.Origin(), method, SuperToken, ErrNoMethod)
	}
	super, err := r.dispatch(parent, method, seen)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(body, SuperToken, super), nil
}
