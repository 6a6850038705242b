package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/patchwork/internal/registry"
	"github.com/roach88/patchwork/internal/runtime"
	"github.com/roach88/patchwork/internal/unit"
)

// AssertionContext gives assertions access to final state.
type AssertionContext struct {
	Runtime  *runtime.Runtime
	Registry *registry.Registry
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []unit.JournalEntry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nJournal:\n")
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s (depth %d)\n", entry.Seq, entry.Op, entry.Extension, entry.Target, entry.Depth)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all assertions held.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOrder:
			err = assertOrder(result, a)
		case AssertChain:
			err = assertChain(result, a, actx)
		case AssertCall:
			err = assertCall(result, a, actx)
		case AssertJournalOps:
			err = assertJournalOps(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func assertOrder(result *Result, a Assertion) error {
	want := toPaths(a.Paths)
	if slices.Equal(want, result.Order) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: fmt.Sprint(want),
		Actual:   fmt.Sprint(result.Order),
	}
}

// assertChain compares the target's applied extensions. An empty paths list
// asserts the target is unpatched.
func assertChain(result *Result, a Assertion, actx *AssertionContext) error {
	target := unit.CleanPath(a.Target)
	want := toPaths(a.Paths)
	got := actx.Registry.Extensions(target)

	if len(want) == 0 && !actx.Registry.IsPatched(target) {
		return nil
	}
	if len(want) > 0 && slices.Equal(want, got) {
		return nil
	}

	actual := fmt.Sprint(got)
	if !actx.Registry.IsPatched(target) {
		actual = "unpatched"
	}
	return &AssertionError{
		Type:     AssertChain,
		Expected: fmt.Sprintf("%s chain %v", target, want),
		Actual:   actual,
		Trace:    result.Trace,
	}
}

func assertCall(result *Result, a Assertion, actx *AssertionContext) error {
	p := unit.CleanPath(a.Path)
	got, err := actx.Runtime.Call(p, a.Method)
	if err != nil {
		return &AssertionError{
			Type:     AssertCall,
			Expected: fmt.Sprintf("%s.%s = %q", p, a.Method, a.Expect),
			Actual:   fmt.Sprintf("error: %v", err),
			Trace:    result.Trace,
		}
	}
	if got == a.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertCall,
		Expected: fmt.Sprintf("%s.%s = %q", p, a.Method, a.Expect),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    result.Trace,
	}
}

func assertJournalOps(result *Result, a Assertion) error {
	got := make([]string, len(result.Trace))
	for i, e := range result.Trace {
		got[i] = e.Op
	}
	if slices.Equal(a.Ops, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertJournalOps,
		Expected: fmt.Sprint(a.Ops),
		Actual:   fmt.Sprint(got),
		Trace:    result.Trace,
	}
}

func toPaths(in []string) []unit.Path {
	out := make([]unit.Path, len(in))
	for i, s := range in {
		out[i] = unit.CleanPath(s)
	}
	return out
}
