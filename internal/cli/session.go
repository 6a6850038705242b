package cli

import (
	"context"
	"errors"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/registry"
	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/store"
	"github.com/roach88/patchwork/internal/unit"
	"github.com/roach88/patchwork/internal/world"
)

// patchSession is one engine over a loaded world, journaling to a database
// when one is configured.
type patchSession struct {
	world  *world.World
	reg    *registry.Registry
	rt     *runtime.Runtime
	engine *engine.Engine
	store  *store.Store
}

// Binding is the state of one patched target.
type Binding struct {
	Target     unit.Path   `json:"target"`
	Bound      unit.Path   `json:"bound"`
	Extensions []unit.Path `json:"extensions"`
}

// loadWorld loads the world in dir. Load failures are command errors.
func loadWorld(opts *RootOptions, dir string) (*world.World, error) {
	w, err := world.Load(dir, world.WithModsRoot(opts.cfg.World.ModsRoot))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load world", err)
	}
	return w, nil
}

// openSession loads the world and builds an engine over it. With a non-empty
// dbPath every transition is journaled there, continuing its seq numbering.
func openSession(ctx context.Context, opts *RootOptions, worldDir, dbPath string) (*patchSession, error) {
	w, err := loadWorld(opts, worldDir)
	if err != nil {
		return nil, err
	}

	s := &patchSession{world: w, reg: registry.New()}
	s.rt = runtime.New(w.Source(), s.reg.Table())

	engOpts := []engine.Option{
		engine.WithLogger(opts.logger),
		engine.WithStrictMapping(opts.cfg.Order.Strict),
	}

	if dbPath != "" {
		opts.logger.Debug("opening journal", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		last, err := st.LastSeq(ctx)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read journal", errors.Join(err, st.Close()))
		}
		s.store = st
		engOpts = append(engOpts,
			engine.WithJournal(st),
			engine.WithClock(engine.NewClockAt(last)),
		)
	}

	s.engine = engine.New(s.rt, s.reg, w.Classes(), w, engOpts...)
	return s, nil
}

// Close closes the journal, if any.
func (s *patchSession) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// handleAll applies every extension of the world.
func (s *patchSession) handleAll(ctx context.Context) (*engine.Report, error) {
	report, err := s.engine.HandleAll(ctx, s.world)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to order extensions", err)
	}
	return report, nil
}

// bindings returns every patched target, sorted by path.
func (s *patchSession) bindings() []Binding {
	targets := s.reg.PatchedTargets()
	out := make([]Binding, 0, len(targets))
	for _, t := range targets {
		b := Binding{Target: t, Extensions: s.reg.Extensions(t)}
		if u, ok := s.reg.Table().Lookup(t); ok {
			b.Bound = u.Origin()
		}
		out = append(out, b)
	}
	return out
}
