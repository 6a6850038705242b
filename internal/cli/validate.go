package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/world"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []world.Issue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <world-dir>",
		Short: "Validate a world without applying it",
		Long: `Validate a world: CUE syntax, declared bases, package layout and load
order, then resolve the application order to catch cycles and extensions
whose target cannot be resolved.

Warnings (extensions outside mods_root, packages missing from the load
order) do not fail validation.

Exit codes:
  0 - World valid (warnings allowed)
  1 - Validation failed
  2 - Command error (world not found, syntax error, etc.)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, worldDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(cmd.Context(), opts, worldDir, "")
	if err != nil {
		var le *world.LoadError
		if errors.As(err, &le) {
			return outputValidateError(formatter, le.Code, le.Error())
		}
		return err
	}
	defer s.Close()

	issues := s.world.Validate()
	formatter.VerboseLog("Loaded %d unit(s) and %d extension(s) from %s",
		len(s.world.Units()), len(s.world.Extensions()), worldDir)

	// Resolving loads and compiles every extension; only do it on a world
	// whose declared bases are sound.
	if !world.HasErrors(issues) {
		issues = append(issues, orderIssues(s)...)
	}

	if world.HasErrors(issues) {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter, issues)
}

// orderIssues resolves the application order and reports what it rejects.
func orderIssues(s *patchSession) []world.Issue {
	order, err := s.engine.Resolve(s.world.Descriptors())
	if err != nil {
		return []world.Issue{{
			Severity: world.SeverityError,
			Code:     patchErrorCode(err, world.ErrCodeGeneric),
			Subject:  "order",
			Message:  err.Error(),
		}}
	}

	var issues []world.Issue
	for _, r := range order.Rejected {
		issues = append(issues, world.Issue{
			Severity: world.SeverityError,
			Code:     patchErrorCode(r.Err, world.ErrCodeGeneric),
			Subject:  string(r.Descriptor.Path),
			Message:  "target cannot be resolved: " + r.Reason,
		})
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, issues []world.Issue) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Issues: issues})
	}

	for _, i := range issues {
		fmt.Fprintf(formatter.Writer, "%s %s %s: %s\n", warnMark(), i.Code, i.Subject, i.Message)
	}
	fmt.Fprintf(formatter.Writer, "%s World valid\n", okMark())
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every issue and fails with exit code 1.
func outputValidationErrors(formatter *OutputFormatter, issues []world.Issue) error {
	var first world.Issue
	errCount := 0
	for _, i := range issues {
		if i.Severity == world.SeverityError {
			if errCount == 0 {
				first = i
			}
			errCount++
		}
	}
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", errCount))

	if formatter.Format == "json" {
		err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Issues: issues},
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		})
		if err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark())
	for _, i := range issues {
		mark := warnMark()
		if i.Severity == world.SeverityError {
			mark = failMark()
		}
		fmt.Fprintf(formatter.Writer, "%s %s %s: %s\n", mark, i.Code, i.Subject, i.Message)
	}
	return failure
}
