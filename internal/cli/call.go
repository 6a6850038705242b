package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/unit"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	Pristine bool
}

// CallResult is the output of the call command.
type CallResult struct {
	Path   unit.Path `json:"path"`
	Method string    `json:"method"`
	Result string    `json:"result"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <world-dir> <path> <method>",
		Short: "Dispatch a method after applying a world",
		Long: `Apply every extension of a world, then dispatch a method on the unit
bound at path. Each {super} in a method body is replaced by the parent's
result for the same method, so the output shows the full patch chain.

Examples:
  patchwork call ./world res/grandchild greet
  patchwork call ./world res/root greet --pristine`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], args[1], args[2], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Pristine, "pristine", false, "dispatch without applying extensions")

	return cmd
}

func runCall(opts *CallOptions, worldDir, path, method string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(ctx, opts.RootOptions, worldDir, "")
	if err != nil {
		return err
	}
	defer s.Close()

	if !opts.Pristine {
		if _, err := s.handleAll(ctx); err != nil {
			_ = formatter.Error(patchErrorCode(err, "E_ORDER"), err.Error(), nil)
			return err
		}
	}

	p := unit.CleanPath(path)
	out, err := s.rt.Call(p, method)
	if err != nil {
		_ = formatter.Error("E_CALL", err.Error(), nil)
		return WrapExitError(ExitFailure, "call failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(CallResult{Path: p, Method: method, Result: out})
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
