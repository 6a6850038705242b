package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/engine"
	"github.com/roach88/patchwork/internal/unit"
)

// OrderEntry is one extension in application order.
type OrderEntry struct {
	Path    unit.Path      `json:"path"`
	Package unit.PackageID `json:"package"`
	Target  unit.Path      `json:"target"`
}

// OrderResult is the output of the order command.
type OrderResult struct {
	Order    []OrderEntry       `json:"order"`
	Targets  []unit.Path        `json:"targets"`
	Unmapped []unit.Descriptor  `json:"unmapped,omitempty"`
	Rejected []engine.Rejection `json:"rejected,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <world-dir>",
		Short: "Print the extension application order",
		Long: `Resolve the order extensions of a world would be applied in, without
applying them.

Extensions are sorted by their package's load order position, then
grouped so that every patch on an ancestor comes before any patch on a
descendant. Extensions whose package is missing from the load order are
listed as skipped (or fail ordering under --strict).

Examples:
  patchwork order ./world
  patchwork order ./world --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(opts *RootOptions, worldDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(cmd.Context(), opts, worldDir, "")
	if err != nil {
		return err
	}
	defer s.Close()

	order, err := s.engine.Resolve(s.world.Descriptors())
	if err != nil {
		_ = formatter.Error(patchErrorCode(err, "E_ORDER"), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to order extensions", err)
	}

	result := newOrderResult(order)
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if len(result.Order) == 0 {
		fmt.Fprintln(w, "No extensions to apply.")
	}
	for i, e := range result.Order {
		fmt.Fprintf(w, "%3d. %s (%s) -> %s\n", i+1, pathText(e.Path), e.Package, pathText(e.Target))
	}
	printSkipped(cmd, order)
	return nil
}

func newOrderResult(order *engine.Order) OrderResult {
	result := OrderResult{
		Order:    make([]OrderEntry, 0, len(order.Descriptors)),
		Targets:  order.Targets,
		Unmapped: order.Unmapped,
		Rejected: order.Rejected,
	}
	if result.Targets == nil {
		result.Targets = []unit.Path{}
	}
	for _, d := range order.Descriptors {
		result.Order = append(result.Order, OrderEntry{
			Path:    d.Path,
			Package: d.Package,
			Target:  order.TargetOf[d.Path],
		})
	}
	return result
}

// printSkipped lists unmapped and rejected descriptors in text output.
func printSkipped(cmd *cobra.Command, order *engine.Order) {
	w := cmd.OutOrStdout()
	for _, d := range order.Unmapped {
		fmt.Fprintf(w, "%s skipped %s: package %s not in load order\n", warnMark(), pathText(d.Path), d.Package)
	}
	for _, r := range order.Rejected {
		fmt.Fprintf(w, "%s rejected %s: %s\n", warnMark(), pathText(r.Descriptor.Path), r.Reason)
	}
}
