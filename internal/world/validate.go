package world

import (
	"fmt"
	"strings"

	"github.com/roach88/patchwork/internal/unit"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Subject  string   `json:"subject"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s %s: %s", i.Severity, i.Code, i.Subject, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the world for problems the engine would only report at
// apply time. Issues are returned in declaration order.
//
// Errors: unknown or missing bases, cycles among declared bases.
// Warnings: extensions outside mods_root/<package>/, load order entries
// with no declared package, declared packages missing from the load order.
func (w *World) Validate() []Issue {
	var issues []Issue
	add := func(sev Severity, code, subject, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)})
	}

	units := make(map[unit.Path]unit.Definition, len(w.units))
	for _, d := range w.units {
		units[d.Path] = d
	}
	extensions := make(map[unit.Path]bool, len(w.extensions))
	for _, e := range w.extensions {
		extensions[e.Path] = true
	}

	for _, d := range w.units {
		if d.Base != "" {
			if _, ok := units[d.Base]; !ok {
				add(SeverityError, ErrCodeUnknownBase, string(d.Path), "extends undeclared unit %s", d.Base)
			}
		}
	}
	issues = append(issues, w.baseCycles(units)...)

	for _, e := range w.extensions {
		switch {
		case e.Base == "":
			add(SeverityError, ErrCodeUnknownBase, string(e.Path), "extension declares no base")
		case units[e.Base].Path == "" && !extensions[e.Base]:
			add(SeverityError, ErrCodeUnknownBase, string(e.Path), "extends undeclared path %s", e.Base)
		}

		if pkg, ok := w.PackageOf(e.Path); !ok || pkg != e.Package {
			add(SeverityWarning, ErrCodeOutsideModRoot, string(e.Path),
				"extension of package %s is not under %s/%s/", e.Package, w.modsRoot, e.Package)
		}
	}

	declared := make(map[unit.PackageID]bool, len(w.packages))
	for _, p := range w.packages {
		declared[p.ID] = true
	}
	for _, id := range w.order {
		if !declared[id] {
			add(SeverityWarning, ErrCodeUnknownPackage, string(id), "load order names an undeclared package")
		}
	}
	for _, p := range w.packages {
		if !w.order.Contains(p.ID) {
			add(SeverityWarning, ErrCodeUnordered, string(p.ID), "package is missing from the load order; its extensions are skipped")
		}
	}

	return issues
}

// baseCycles reports each cycle among declared unit bases once.
func (w *World) baseCycles(units map[unit.Path]unit.Definition) []Issue {
	var issues []Issue
	done := make(map[unit.Path]bool)

	for _, start := range w.units {
		var walk []unit.Path
		onWalk := make(map[unit.Path]int)

		p := start.Path
		for p != "" && !done[p] {
			if at, ok := onWalk[p]; ok {
				cycle := make([]string, 0, len(walk)-at+1)
				for _, q := range walk[at:] {
					cycle = append(cycle, string(q))
				}
				cycle = append(cycle, string(p))
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     ErrCodeBaseCycle,
					Subject:  string(p),
					Message:  "declared bases form a cycle: " + strings.Join(cycle, " -> "),
				})
				break
			}
			onWalk[p] = len(walk)
			walk = append(walk, p)
			p = units[p].Base
		}

		for _, q := range walk {
			done[q] = true
		}
	}
	return issues
}
