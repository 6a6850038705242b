package engine

import (
	"slices"

	"github.com/roach88/patchwork/internal/unit"
)

// Hierarchy answers the parent-binding questions the resolver asks.
// Implemented by Engine; tests use static fakes.
type Hierarchy interface {
	// TargetOf loads ext and returns the path its parent is currently bound at.
	TargetOf(ext unit.Path) (unit.Path, error)

	// ParentOf returns the path p's parent is bound at. ok is false for roots.
	ParentOf(p unit.Path) (parent unit.Path, ok bool, err error)
}

// PackageResolver maps a storage path to the package that owns it.
type PackageResolver func(unit.Path) (unit.PackageID, bool)

// Order is the result of resolving a set of descriptors.
type Order struct {
	// Descriptors is the final application order.
	Descriptors []unit.Descriptor `json:"descriptors"`

	// Targets lists every distinct target, root-first.
	Targets []unit.Path `json:"targets"`

	// TargetOf maps each ordered extension path to its resolved target.
	TargetOf map[unit.Path]unit.Path `json:"target_of"`

	// Unmapped holds descriptors whose package is missing from the load order.
	Unmapped []unit.Descriptor `json:"unmapped,omitempty"`

	// Rejected holds descriptors whose target could not be resolved.
	Rejected []Rejection `json:"rejected,omitempty"`
}

// Rejection is a descriptor excluded from the order because resolving its
// target failed.
type Rejection struct {
	Descriptor unit.Descriptor `json:"descriptor"`
	Err        error           `json:"-"`
	Reason     string          `json:"reason"`
}

// Paths returns the ordered extension paths.
func (o *Order) Paths() []unit.Path {
	out := make([]unit.Path, len(o.Descriptors))
	for i, d := range o.Descriptors {
		out[i] = d.Path
	}
	return out
}

// Resolver computes the application order of a set of extensions.
//
// The algorithm:
//  1. Sort descriptors by their package's load order position, keeping each
//     package's discovery order. Descriptors of unknown packages are dropped
//     into Order.Unmapped (or fail the resolve in strict mode).
//  2. Resolve each descriptor's target, walk every distinct target up to its
//     root, and merge those leaf-to-root chains into one sequence by anchor
//     alignment. Keeping only targets and reversing it yields a root-first
//     order over targets.
//  3. Emit, per target in root-first order, its descriptors in step 1 order.
//
// Result: patches on an ancestor always precede patches on its descendants,
// and patches sharing a target follow load order.
type Resolver struct {
	hierarchy Hierarchy
	strict    bool
}

// NewResolver creates a resolver. With strict set, descriptors of packages
// missing from the load order fail the resolve with AMBIGUOUS_MOD_MAPPING.
func NewResolver(h Hierarchy, strict bool) *Resolver {
	return &Resolver{hierarchy: h, strict: strict}
}

// Resolve orders descs against the load order.
func (r *Resolver) Resolve(descs []unit.Descriptor, lo unit.LoadOrder, packageOf PackageResolver) (*Order, error) {
	sorted, unmapped := sortByLoadOrder(descs, lo, packageOf)
	if r.strict && len(unmapped) > 0 {
		return nil, NewAmbiguousMappingError(unmapped)
	}

	order := &Order{
		TargetOf: make(map[unit.Path]unit.Path),
		Unmapped: unmapped,
	}

	// Resolve immediate targets, remembering first appearance order.
	var targets []unit.Path
	seen := make(map[unit.Path]bool)
	var resolved []unit.Descriptor
	for _, d := range sorted {
		target, err := r.hierarchy.TargetOf(d.Path)
		if err != nil {
			order.Rejected = append(order.Rejected, Rejection{Descriptor: d, Err: err, Reason: err.Error()})
			continue
		}
		order.TargetOf[d.Path] = target
		resolved = append(resolved, d)
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
	}

	// Merge every target's ancestor chain into one leaf-to-root sequence.
	var merged []unit.Path
	for _, target := range targets {
		chain, err := r.ancestors(target)
		if err != nil {
			return nil, err
		}
		merged = mergeChains(merged, chain)
	}

	// Keep targets only, root-first.
	for i := len(merged) - 1; i >= 0; i-- {
		if seen[merged[i]] {
			order.Targets = append(order.Targets, merged[i])
		}
	}

	for _, target := range order.Targets {
		for _, d := range resolved {
			if order.TargetOf[d.Path] == target {
				order.Descriptors = append(order.Descriptors, d)
			}
		}
	}

	return order, nil
}

// sortByLoadOrder groups descriptors by their package's load order position.
// The sort is stable, so each package keeps its discovery order.
func sortByLoadOrder(descs []unit.Descriptor, lo unit.LoadOrder, packageOf PackageResolver) (sorted, unmapped []unit.Descriptor) {
	type ranked struct {
		desc unit.Descriptor
		pos  int
	}

	var keep []ranked
	for _, d := range descs {
		pkg, ok := packageOf(d.Path)
		if !ok {
			unmapped = append(unmapped, d)
			continue
		}
		pos, ok := lo.Position(pkg)
		if !ok {
			unmapped = append(unmapped, d)
			continue
		}
		keep = append(keep, ranked{desc: d, pos: pos})
	}

	slices.SortStableFunc(keep, func(a, b ranked) int {
		return a.pos - b.pos
	})

	sorted = make([]unit.Descriptor, len(keep))
	for i, k := range keep {
		sorted[i] = k.desc
	}
	return sorted, unmapped
}

// ancestors walks from target up through parent bindings and returns the
// leaf-to-root sequence, target first. Revisiting a path is a fatal
// configuration fault.
func (r *Resolver) ancestors(target unit.Path) ([]unit.Path, error) {
	var chain []unit.Path
	visited := make(map[unit.Path]bool)

	p := target
	for {
		if visited[p] {
			return nil, NewCycleError(append(chain, p))
		}
		visited[p] = true
		chain = append(chain, p)

		parent, ok, err := r.hierarchy.ParentOf(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return chain, nil
		}
		p = parent
	}
}

// mergeChains merges a leaf-to-root chain into the running leaf-to-root
// sequence.
//
// The earliest element of merged that also appears in chain is the nearest
// shared ancestor. The chain's elements below it are spliced in immediately
// before that position; with no shared element the chain is appended.
//
//	merged: [child, root]
//	chain:  [grandchild, child, root]
//	result: [grandchild, child, root]
func mergeChains(merged, chain []unit.Path) []unit.Path {
	index := make(map[unit.Path]int, len(chain))
	for i, p := range chain {
		index[p] = i
	}

	for pos, p := range merged {
		at, ok := index[p]
		if !ok {
			continue
		}
		out := make([]unit.Path, 0, len(merged)+at)
		out = append(out, merged[:pos]...)
		out = append(out, chain[:at]...)
		out = append(out, merged[pos:]...)
		return out
	}

	return append(merged, chain...)
}
