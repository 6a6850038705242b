package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/patchwork/internal/registry"
	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/unit"
)

// LoadOrderProvider supplies the package load order and maps extension paths
// to their packages.
type LoadOrderProvider interface {
	LoadOrder() unit.LoadOrder
	PackageOf(p unit.Path) (unit.PackageID, bool)
}

// Engine is the patch application state machine.
//
// Each base path is either UNPATCHED (no saved chain) or PATCHED (a saved
// chain with at least one extension). Apply moves a target forward, RevertAll
// moves it back to UNPATCHED, RemoveOne and RemoveAllForPackage revert and
// replay the survivors.
//
// Thread-safety model:
//   - Not safe for concurrent use. Callers serialize every operation.
//   - Operations never block or yield; ctx is only handed to the journal.
//
// INVARIANTS:
//   - Every check runs before the first mutation of an operation
//   - A saved chain is never empty; chain[0] is the pristine unit
//   - After Apply the target path is bound to the newest extension
type Engine struct {
	rt       *runtime.Runtime
	reg      *registry.Registry
	classes  *runtime.ClassIndex
	packages LoadOrderProvider

	journal  Journal
	clock    *Clock
	sessions SessionGenerator
	logger   *slog.Logger
	strict   bool

	session string // token of the running top-level operation
	depth   int    // nesting of public operations (RemoveOne calls apply, ...)
}

// Option configures an Engine.
type Option func(*Engine)

// WithJournal records every transition in j.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithClock sets the journal clock. Use NewClockAt to continue an existing
// journal's numbering.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithSessionGenerator overrides the session token generator.
//
// Default: UUIDv7Generator
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessions = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStrictMapping makes ordering fail with AMBIGUOUS_MOD_MAPPING when an
// extension's package is missing from the load order, instead of dropping it
// with a warning.
func WithStrictMapping(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New creates an Engine over an explicitly constructed registry and runtime.
// The runtime must bind into reg.Table().
func New(
	rt *runtime.Runtime,
	reg *registry.Registry,
	classes *runtime.ClassIndex,
	packages LoadOrderProvider,
	opts ...Option,
) *Engine {
	e := &Engine{
		rt:       rt,
		reg:      reg,
		classes:  classes,
		packages: packages,
		clock:    NewClock(),
		sessions: UUIDv7Generator{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Registry returns the engine's extension registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Runtime returns the engine's runtime.
func (e *Engine) Runtime() *runtime.Runtime {
	return e.rt
}

// Session returns the token of the current or most recent top-level
// operation.
func (e *Engine) Session() string {
	return e.session
}

// enter opens a session for a top-level operation. Nested calls share it.
func (e *Engine) enter() func() {
	if e.depth == 0 {
		e.session = e.sessions.Generate()
	}
	e.depth++
	return func() { e.depth-- }
}

// =============================================================================
// Apply
// =============================================================================

// Apply loads the extension at ext and chains it onto the target its parent
// is currently bound at.
//
// Steps:
//  1. Fail with STORAGE_NOT_FOUND if ext is absent (no state change)
//  2. Load and eagerly compile the extension
//  3. Resolve the target from the compiled parent link
//  4. Snapshot the unit bound at the target as chain[0] on first patch
//  5. Append the extension to the chain and take over the target path
//  6. Recompile the target's direct children
func (e *Engine) Apply(ctx context.Context, ext unit.Path) (*unit.Unit, error) {
	defer e.enter()()
	return e.apply(ctx, ext, unit.OpApply)
}

func (e *Engine) apply(ctx context.Context, ext unit.Path, op string) (*unit.Unit, error) {
	if !e.rt.Exists(ext) {
		return nil, NewStorageNotFoundError(ext)
	}

	u, err := e.rt.Load(ext)
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", ext, err)
	}
	if u.IsRoot() {
		return nil, NewNoBaseError(ext)
	}

	// The parent link must reflect the binding as of now: several extensions
	// of one target chain onto each other within a single pass.
	if err := e.rt.Compile(u); err != nil {
		return nil, fmt.Errorf("apply %s: %w", ext, err)
	}
	parent, _ := e.rt.Parent(u)
	target := e.rt.PathOf(parent)

	current, err := e.rt.Load(target)
	if err != nil {
		return nil, fmt.Errorf("apply %s: target %s: %w", ext, target, err)
	}

	e.reg.StartChain(target, current)
	depth := e.reg.AppendChain(target, u)
	e.reg.Table().Takeover(target, u)

	pkg, mapped := e.packages.PackageOf(ext)
	if mapped {
		e.reg.Attribute(pkg, ext)
	} else {
		e.logger.Warn("extension has no package attribution", "extension", ext)
	}

	e.logger.Info("extension applied",
		"op", op,
		"extension", ext,
		"target", target,
		"package", pkg,
		"depth", depth,
	)
	e.record(ctx, unit.JournalEntry{
		Op:        op,
		Extension: ext,
		Target:    target,
		Package:   pkg,
		Depth:     depth,
	})

	e.sweep(target)
	return u, nil
}

// =============================================================================
// Revert and remove
// =============================================================================

// RevertAll rebinds base to its pristine unit and erases its saved chain.
func (e *Engine) RevertAll(ctx context.Context, base unit.Path) error {
	defer e.enter()()
	return e.revertAll(ctx, base)
}

func (e *Engine) revertAll(ctx context.Context, base unit.Path) error {
	if !e.rt.Exists(base) {
		return NewStorageNotFoundError(base)
	}
	chain, err := e.chainOf(base, base)
	if err != nil {
		return err
	}

	e.reg.Table().Takeover(base, chain[0])
	e.reg.EraseChain(base)

	e.logger.Info("target reverted", "target", base, "dropped", len(chain)-1)
	e.record(ctx, unit.JournalEntry{Op: unit.OpRevert, Target: base})

	e.sweep(base)
	return nil
}

// RemoveOne removes a single extension from its target's chain.
//
// A takeover cannot be undone locally: every later extension was compiled
// against the binding the removed one created. RemoveOne therefore reverts
// the whole target and replays the surviving extensions in their original
// order.
func (e *Engine) RemoveOne(ctx context.Context, ext unit.Path) error {
	defer e.enter()()
	return e.removeOne(ctx, ext)
}

func (e *Engine) removeOne(ctx context.Context, ext unit.Path) error {
	if !e.rt.Exists(ext) {
		return NewStorageNotFoundError(ext)
	}

	target, ok := e.reg.TargetOf(ext)
	if !ok {
		t, err := e.TargetOf(ext)
		if err != nil {
			return fmt.Errorf("remove %s: %w", ext, err)
		}
		target = t
	}

	chain, err := e.chainOf(ext, target)
	if err != nil {
		return err
	}

	survivors := slices.Clone(chain[1:])
	idx := slices.IndexFunc(survivors, func(u *unit.Unit) bool { return u.Origin() == ext })
	if idx < 0 {
		return NewExtensionNotFoundError(ext, target)
	}
	survivors = slices.Delete(survivors, idx, idx+1)

	if err := e.revertAll(ctx, target); err != nil {
		return fmt.Errorf("remove %s: %w", ext, err)
	}

	var errs []error
	for _, s := range survivors {
		if _, err := e.apply(ctx, s.Origin(), unit.OpReplay); err != nil {
			e.logger.Error("replay failed", "extension", s.Origin(), "target", target, "error", err)
			errs = append(errs, fmt.Errorf("replay %s: %w", s.Origin(), err))
		}
	}

	pkg, owned := e.reg.OwnerOf(ext)
	if owned {
		e.reg.DropAttribution(pkg, ext)
	}

	e.logger.Info("extension removed", "extension", ext, "target", target, "survivors", len(survivors))
	e.record(ctx, unit.JournalEntry{
		Op:        unit.OpRemove,
		Extension: ext,
		Target:    target,
		Package:   pkg,
		Depth:     len(e.reg.Extensions(target)),
	})

	return errors.Join(errs...)
}

// RemoveAllForPackage removes every extension recorded for pkg, in recorded
// order. A failure on one extension is logged and does not stop the rest;
// all failures are returned joined.
func (e *Engine) RemoveAllForPackage(ctx context.Context, pkg unit.PackageID) error {
	defer e.enter()()

	exts := e.reg.Attributed(pkg)
	if len(exts) == 0 {
		e.logger.Info("package has no applied extensions", "package", pkg)
	}

	var errs []error
	for _, ext := range exts {
		if err := e.removeOne(ctx, ext); err != nil {
			e.logger.Error("remove failed", "extension", ext, "package", pkg, "error", err)
			errs = append(errs, fmt.Errorf("remove %s: %w", ext, err))
		}
		e.reg.DropAttribution(pkg, ext)
	}

	e.record(ctx, unit.JournalEntry{Op: unit.OpRemovePackage, Package: pkg})
	return errors.Join(errs...)
}

// chainOf returns target's saved chain or the error explaining why there is
// none. p is the path the caller asked about.
func (e *Engine) chainOf(p, target unit.Path) ([]*unit.Unit, error) {
	chain, present := e.reg.Chain(target)
	return checkChain(p, target, chain, present)
}

func checkChain(p, target unit.Path, chain []*unit.Unit, present bool) ([]*unit.Unit, error) {
	if !present {
		return nil, NewNotExtendedError(p, target)
	}
	if len(chain) == 0 {
		return nil, NewInvariantError(p, target)
	}
	return chain, nil
}

// =============================================================================
// Hierarchy
// =============================================================================

// TargetOf loads ext, compiles it and returns the path its parent is bound
// at. Implements Hierarchy.
func (e *Engine) TargetOf(ext unit.Path) (unit.Path, error) {
	if !e.rt.Exists(ext) {
		return "", NewStorageNotFoundError(ext)
	}
	u, err := e.rt.Load(ext)
	if err != nil {
		return "", err
	}
	if u.IsRoot() {
		return "", NewNoBaseError(ext)
	}
	if err := e.rt.Compile(u); err != nil {
		return "", err
	}
	parent, _ := e.rt.Parent(u)
	return e.rt.PathOf(parent), nil
}

// ParentOf returns the path p's parent is bound at. For a patched path the
// pristine unit is asked, since the bound extension's parent is the path
// itself. Implements Hierarchy.
func (e *Engine) ParentOf(p unit.Path) (unit.Path, bool, error) {
	u, ok := e.reg.Pristine(p)
	if !ok {
		loaded, err := e.rt.Load(p)
		if err != nil {
			return "", false, err
		}
		u = loaded
	}
	if !e.rt.IsCompiled(u) {
		if err := e.rt.Compile(u); err != nil {
			return "", false, err
		}
	}
	parent, ok := e.rt.Parent(u)
	if !ok {
		return "", false, nil
	}
	return e.rt.PathOf(parent), true, nil
}
