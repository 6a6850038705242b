package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patchwork/internal/unit"
)

const referenceWorld = `
load_order: ["M2", "M1", "M3"]
units: "res/root": methods: greet: "root"
units: "res/child": {extends: "res/root", methods: greet: "child>{super}"}
units: "res/grandchild": {extends: "res/child", methods: greet: "grandchild>{super}"}
packages: M1: extensions: "mods/M1/e1": {extends: "res/root", methods: greet: "e1>{super}"}
packages: M2: extensions: "mods/M2/e2": {extends: "res/child", methods: greet: "e2>{super}"}
packages: M3: extensions: "mods/M3/e3": {extends: "res/root", methods: greet: "e3>{super}"}
`

func referenceScenario(steps []Step, assertions ...Assertion) *Scenario {
	return &Scenario{
		Name:        "reference",
		Description: "reference world",
		World:       referenceWorld,
		Steps:       steps,
		Assertions:  assertions,
	}
}

func TestRun_ReferenceScenario(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpHandleAll}},
		Assertion{Type: AssertOrder, Paths: []string{"mods/M1/e1", "mods/M3/e3", "mods/M2/e2"}},
		Assertion{Type: AssertChain, Target: "res/root", Paths: []string{"mods/M1/e1", "mods/M3/e3"}},
		Assertion{Type: AssertCall, Path: "res/grandchild", Method: "greet", Expect: "grandchild>e2>child>e3>e1>root"},
		Assertion{Type: AssertJournalOps, Ops: []string{"apply", "apply", "apply"}},
	)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	assert.Equal(t, []unit.Path{"mods/M1/e1", "mods/M3/e3", "mods/M2/e2"}, result.Order)
	require.Len(t, result.Steps, 1)
	assert.Empty(t, result.Steps[0].Error)

	require.Len(t, result.Trace, 3)
	for i, e := range result.Trace {
		assert.Equal(t, int64(i+1), e.Seq)
		assert.Equal(t, "test-session", e.Session)
	}
	assert.Equal(t, unit.Path("res/child"), result.Trace[2].Target)
}

func TestRun_CustomSession(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpHandleAll}},
		Assertion{Type: AssertJournalOps, Ops: []string{"apply", "apply", "apply"}},
	)
	s.Session = "boot-1"

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	for _, e := range result.Trace {
		assert.Equal(t, "boot-1", e.Session)
	}
}

func TestRun_ExpectedErrorMatched(t *testing.T) {
	s := referenceScenario(
		[]Step{
			{Op: OpRevert, Path: "res/root", ExpectError: "NOT_EXTENDED"},
			{Op: OpApply, Path: "mods/nope/x", ExpectError: "STORAGE_NOT_FOUND"},
		},
		Assertion{Type: AssertChain, Target: "res/root"},
	)

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Steps, 2)
	assert.Equal(t, "NOT_EXTENDED", result.Steps[0].Error)
	assert.Equal(t, "STORAGE_NOT_FOUND", result.Steps[1].Error)
	assert.Empty(t, result.Trace)
}

func TestRun_UnexpectedError(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpRevert, Path: "res/root"}},
		Assertion{Type: AssertOrder},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorButSuccess(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpApply, Path: "mods/M1/e1", ExpectError: "NOT_EXTENDED"}},
		Assertion{Type: AssertChain, Target: "res/root", Paths: []string{"mods/M1/e1"}},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected NOT_EXTENDED, got success")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpRemove, Path: "mods/nope/x", ExpectError: "NOT_EXTENDED"}},
		Assertion{Type: AssertOrder},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected NOT_EXTENDED")
	assert.Equal(t, "STORAGE_NOT_FOUND", result.Steps[0].Error)
}

func TestRun_AssertionFailure(t *testing.T) {
	s := referenceScenario(
		[]Step{{Op: OpHandleAll}},
		Assertion{Type: AssertCall, Path: "res/root", Method: "greet", Expect: "root"},
	)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: call")
	assert.Contains(t, result.Errors[0], `"e3>e1>root"`)
}

func TestRun_InvalidWorld(t *testing.T) {
	s := &Scenario{
		Name:        "broken",
		Description: "syntax error",
		World:       "units: {",
		Steps:       []Step{{Op: OpHandleAll}},
		Assertions:  []Assertion{{Type: AssertOrder}},
	}

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load world")
}

// =============================================================================
// Assertions
// =============================================================================

func TestAssertionError_IncludesJournal(t *testing.T) {
	err := &AssertionError{
		Type:     AssertChain,
		Expected: "res/root chain [mods/A/a]",
		Actual:   "unpatched",
		Trace: []unit.JournalEntry{
			{Seq: 1, Op: unit.OpApply, Extension: "mods/A/a", Target: "res/root", Depth: 1},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: chain")
	assert.Contains(t, msg, "Actual: unpatched")
	assert.Contains(t, msg, "[1] apply mods/A/a -> res/root (depth 1)")
}

func TestAssertOrder_EmptyMatchesNothingOrdered(t *testing.T) {
	result := NewResult()
	failures := EvaluateAssertions(result, []Assertion{{Type: AssertOrder}}, nil)
	assert.Empty(t, failures)
}

func TestAssertJournalOps_Mismatch(t *testing.T) {
	result := NewResult()
	result.Trace = []unit.JournalEntry{{Seq: 1, Op: unit.OpApply}}

	failures := EvaluateAssertions(result, []Assertion{{Type: AssertJournalOps, Ops: []string{"apply", "apply"}}}, nil)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "assertions[0]")
	assert.Contains(t, failures[0], "[apply apply]")
}
