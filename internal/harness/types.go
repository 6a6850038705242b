package harness

import (
	"github.com/roach88/patchwork/internal/unit"
)

// StepResult records the outcome of one step.
type StepResult struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"` // PatchError code, or the message for other errors
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Order is the application order computed by the last handle_all step.
	Order []unit.Path `json:"order"`

	// Steps records each step's outcome.
	Steps []StepResult `json:"steps"`

	// Trace is the full journal in seq order.
	Trace []unit.JournalEntry `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Order:  []unit.Path{},
		Steps:  []StepResult{},
		Trace:  []unit.JournalEntry{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
