package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/unit"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Database string
}

// FailureView is an extension that failed to apply.
type FailureView struct {
	Path    unit.Path `json:"path"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// ApplyResult is the output of the apply command.
type ApplyResult struct {
	Session  string             `json:"session"`
	Applied  []OrderEntry       `json:"applied"`
	Failed   []FailureView      `json:"failed,omitempty"`
	Unmapped []unit.Descriptor  `json:"unmapped,omitempty"`
	Rejected []engine.Rejection `json:"rejected,omitempty"`
	Bindings []Binding          `json:"bindings"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <world-dir>",
		Short: "Apply every extension of a world",
		Long: `Resolve the application order and apply every extension of a world,
then print each patched target with its extension chain.

With --db (or database.path in the config file) every transition is
appended to the journal in that SQLite database; see 'patchwork trace'.

Exit codes:
  0 - All extensions applied
  1 - Ordering failed or one or more extensions failed to apply
  2 - Command error (world not found, database error, etc.)

Examples:
  patchwork apply ./world
  patchwork apply ./world --db ./patchwork.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database")

	return cmd
}

func runApply(opts *ApplyOptions, worldDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(ctx, opts.RootOptions, worldDir, opts.dbPath(opts.Database))
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.handleAll(ctx)
	if err != nil {
		_ = formatter.Error(patchErrorCode(err, "E_ORDER"), err.Error(), nil)
		return err
	}

	result := ApplyResult{
		Session:  s.engine.Session(),
		Applied:  make([]OrderEntry, 0, len(report.Applied)),
		Unmapped: report.Order.Unmapped,
		Rejected: report.Order.Rejected,
		Bindings: s.bindings(),
	}
	for _, p := range report.Applied {
		pkg, _ := s.world.PackageOf(p)
		result.Applied = append(result.Applied, OrderEntry{Path: p, Package: pkg, Target: report.Order.TargetOf[p]})
	}
	for _, f := range report.Failed {
		result.Failed = append(result.Failed, FailureView{
			Path:    f.Path,
			Code:    patchErrorCode(f.Err, "E_APPLY"),
			Message: f.Err.Error(),
		})
	}

	var failure error
	if len(result.Failed) > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d extension(s) failed to apply", len(result.Failed)))
	}

	if opts.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result, Session: result.Session}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Failed[0].Code, Message: failure.Error()}
		}
		if err := formatter.Response(resp); err != nil {
			return err
		}
		return failure
	}

	w := cmd.OutOrStdout()
	for _, e := range result.Applied {
		fmt.Fprintf(w, "%s applied %s -> %s\n", okMark(), pathText(e.Path), pathText(e.Target))
	}
	for _, f := range result.Failed {
		fmt.Fprintf(w, "%s failed %s: %s\n", failMark(), pathText(f.Path), f.Message)
	}
	printSkipped(cmd, report.Order)
	printBindings(cmd, result.Bindings)
	formatter.VerboseLog("session %s", result.Session)
	return failure
}

// printBindings prints each patched target with its chain in text output.
func printBindings(cmd *cobra.Command, bindings []Binding) {
	w := cmd.OutOrStdout()
	if len(bindings) == 0 {
		fmt.Fprintln(w, "No patched targets.")
		return
	}
	fmt.Fprintln(w)
	for _, b := range bindings {
		fmt.Fprintf(w, "%s <- %v\n", pathText(b.Target), b.Extensions)
	}
}
