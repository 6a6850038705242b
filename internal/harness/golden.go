package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/patchwork/internal/unit"
)

// TraceSnapshot is the golden form of a scenario run: the order it
// computed and every journal entry it wrote.
type TraceSnapshot struct {
	ScenarioName string              `json:"scenario_name"`
	Order        []unit.Path         `json:"order"`
	Steps        []StepResult        `json:"steps"`
	Trace        []unit.JournalEntry `json:"trace"`
}

// Snapshot serializes a result for golden comparison. The output is
// deterministic: struct fields marshal in declaration order and the trace is
// ordered by seq.
func Snapshot(name string, result *Result) ([]byte, error) {
	return json.MarshalIndent(TraceSnapshot{
		ScenarioName: name,
		Order:        result.Order,
		Steps:        result.Steps,
		Trace:        result.Trace,
	}, "", "  ")
}

// RunWithGolden executes a scenario and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
