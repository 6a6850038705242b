package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/patchwork/internal/engine"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// World is inline CUE source for the world under test.
	World string `yaml:"world"`

	// Session is the fixed session token. Defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Strict makes unmapped packages fail ordering.
	Strict bool `yaml:"strict,omitempty"`

	// Steps run in order against one engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and journal.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Path is the extension (apply, remove) or base (revert) path.
	Path string `yaml:"path,omitempty"`

	// Package is the package id for remove_package.
	Package string `yaml:"package,omitempty"`

	// ExpectError is the PatchError code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpHandleAll     = "handle_all"
	OpApply         = "apply"
	OpRemove        = "remove"
	OpRemovePackage = "remove_package"
	OpRevert        = "revert"
)

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Paths is the expected order (order) or extension chain (chain).
	Paths []string `yaml:"paths,omitempty"`

	// Target is the base path whose chain is checked (chain).
	Target string `yaml:"target,omitempty"`

	// Path and Method select a dispatch (call).
	Path   string `yaml:"path,omitempty"`
	Method string `yaml:"method,omitempty"`

	// Expect is the expected dispatch result (call).
	Expect string `yaml:"expect,omitempty"`

	// Ops is the expected journal op sequence (journal_ops).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertOrder      = "order"
	AssertChain      = "chain"
	AssertCall       = "call"
	AssertJournalOps = "journal_ops"
)

var errorCodes = []string{
	string(engine.ErrCodeStorageNotFound),
	string(engine.ErrCodeNotExtended),
	string(engine.ErrCodeExtensionNotFound),
	string(engine.ErrCodeInvariantViolation),
	string(engine.ErrCodeAmbiguousMapping),
	string(engine.ErrCodeCycleDetected),
	string(engine.ErrCodeNoBase),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.World == "" {
		return fmt.Errorf("world is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch s.Op {
	case OpHandleAll:
	case OpApply, OpRemove, OpRevert:
		if s.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, s.Op)
		}
	case OpRemovePackage:
		if s.Package == "" {
			return fmt.Errorf("steps[%d]: package is required for remove_package", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}

	if s.ExpectError != "" && !slices.Contains(errorCodes, s.ExpectError) {
		return fmt.Errorf("steps[%d]: unknown error code %q", index, s.ExpectError)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertOrder:
		// An empty paths list asserts that nothing was ordered.
	case AssertChain:
		if a.Target == "" {
			return fmt.Errorf("assertions[%d]: target is required for chain", index)
		}
	case AssertCall:
		if a.Path == "" || a.Method == "" {
			return fmt.Errorf("assertions[%d]: path and method are required for call", index)
		}
	case AssertJournalOps:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for journal_ops", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
