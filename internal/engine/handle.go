package engine

import (
	"context"

	"github.com/roach88/patchwork/internal/unit"
)

// Discovery lists every known extension descriptor.
type Discovery interface {
	Descriptors() []unit.Descriptor
}

// Report summarizes a HandleAll run.
type Report struct {
	Order   *Order
	Applied []unit.Path
	Failed  []Failure
}

// Failure is an extension whose apply failed during HandleAll.
type Failure struct {
	Path unit.Path
	Err  error
}

// Resolve orders descs against the engine's load order. Unmapped and
// rejected descriptors are logged at Warn.
func (e *Engine) Resolve(descs []unit.Descriptor) (*Order, error) {
	r := NewResolver(e, e.strict)
	order, err := r.Resolve(descs, e.packages.LoadOrder(), e.packages.PackageOf)
	if err != nil {
		return nil, err
	}

	for _, d := range order.Unmapped {
		e.logger.Warn("extension package not in load order; skipped",
			"extension", d.Path,
			"package", d.Package,
		)
	}
	for _, rj := range order.Rejected {
		e.logger.Warn("extension target unresolved; skipped",
			"extension", rj.Descriptor.Path,
			"package", rj.Descriptor.Package,
			"error", rj.Err,
		)
	}

	return order, nil
}

// HandleAll is the startup entry point: discover every descriptor, resolve
// the order and apply each extension in it.
//
// A failing apply is logged and recorded in the report; the remaining
// extensions are still applied. Only a resolve failure (cycle, strict
// mapping) is returned as an error.
func (e *Engine) HandleAll(ctx context.Context, d Discovery) (*Report, error) {
	defer e.enter()()

	order, err := e.Resolve(d.Descriptors())
	if err != nil {
		return nil, err
	}

	report := &Report{Order: order}
	for _, desc := range order.Descriptors {
		if _, err := e.apply(ctx, desc.Path, unit.OpApply); err != nil {
			e.logger.Error("apply failed",
				"extension", desc.Path,
				"package", desc.Package,
				"error", err,
			)
			report.Failed = append(report.Failed, Failure{Path: desc.Path, Err: err})
			continue
		}
		report.Applied = append(report.Applied, desc.Path)
	}

	e.logger.Info("extensions handled",
		"applied", len(report.Applied),
		"failed", len(report.Failed),
		"unmapped", len(order.Unmapped),
		"rejected", len(order.Rejected),
	)
	return report, nil
}
