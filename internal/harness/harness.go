package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/registry"
	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/store"
	"github.com/roach88/patchwork/internal/testutil"
	"github.com/roach88/patchwork/internal/unit"
	"github.com/roach88/patchwork/internal/world"
)

// Harness executes scenario steps against one engine.
type Harness struct {
	world  *world.World
	store  *store.Store
	engine *engine.Engine
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Load the inline CUE world
//  2. Open an in-memory journal and build the engine
//  3. Execute steps, checking expected error codes
//  4. Read back the journal as the trace
//  5. Evaluate assertions
//
// A returned error means the scenario could not run at all; step and
// assertion failures are reported in the result.
func Run(s *Scenario) (*Result, error) {
	w, err := world.LoadString(s.World, s.Name+".cue")
	if err != nil {
		return nil, fmt.Errorf("failed to load world: %w", err)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	reg := registry.New()
	rt := runtime.New(w.Source(), reg.Table())
	eng := engine.New(rt, reg, w.Classes(), w,
		engine.WithJournal(st),
		engine.WithClock(engine.NewClock()),
		engine.WithSessionGenerator(testutil.NewFixedSession(s.Session)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithStrictMapping(s.Strict),
	)

	h := &Harness{world: w, store: st, engine: eng}
	ctx := context.Background()
	result := NewResult()

	for i, step := range s.Steps {
		h.execute(ctx, i, step, result)
	}

	trace, err := st.ReadJournal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	result.Trace = trace

	actx := &AssertionContext{Runtime: rt, Registry: reg}
	for _, msg := range EvaluateAssertions(result, s.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one step and checks it against its expected error.
func (h *Harness) execute(ctx context.Context, index int, step Step, result *Result) {
	sr := StepResult{Index: index, Op: step.Op, Subject: step.Path}

	var err error
	switch step.Op {
	case OpHandleAll:
		var report *engine.Report
		report, err = h.engine.HandleAll(ctx, h.world)
		if report != nil {
			result.Order = report.Order.Paths()
			if err == nil && len(report.Failed) > 0 {
				err = report.Failed[0].Err
			}
		}
	case OpApply:
		_, err = h.engine.Apply(ctx, unit.CleanPath(step.Path))
	case OpRemove:
		err = h.engine.RemoveOne(ctx, unit.CleanPath(step.Path))
	case OpRemovePackage:
		sr.Subject = step.Package
		err = h.engine.RemoveAllForPackage(ctx, unit.PackageID(step.Package))
	case OpRevert:
		err = h.engine.RevertAll(ctx, unit.CleanPath(step.Path))
	}

	if err != nil {
		if code, ok := engine.CodeOf(err); ok {
			sr.Error = string(code)
		} else {
			sr.Error = err.Error()
		}
	}
	result.Steps = append(result.Steps, sr)

	label := fmt.Sprintf("steps[%d] %s %s", index, step.Op, sr.Subject)
	switch {
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("%s: expected %s, got success", label, step.ExpectError))
	case step.ExpectError != "" && sr.Error != step.ExpectError:
		result.AddError(fmt.Sprintf("%s: expected %s, got %v", label, step.ExpectError, err))
	}
}
