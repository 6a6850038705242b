package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/unit"
)

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Database  string
	Extension string
	Package   string
}

// RemoveResult is the output of the remove command.
type RemoveResult struct {
	Session  string      `json:"session"`
	Removed  []unit.Path `json:"removed"`
	Bindings []Binding   `json:"bindings"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <world-dir>",
		Short: "Apply a world, then remove an extension or a whole package",
		Long: `Apply every extension of a world, then remove one extension
(--extension) or every extension a package contributed (--package).

Removing an extension reverts its target to the pristine unit and replays
the surviving extensions in their original order.

Exit codes:
  0 - Removal succeeded
  1 - Removal failed (extension not applied, replay failure, etc.)
  2 - Command error (world not found, database error, etc.)

Examples:
  patchwork remove ./world --extension mods/M1/e1
  patchwork remove ./world --package M1 --db ./patchwork.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database")
	cmd.Flags().StringVar(&opts.Extension, "extension", "", "extension path to remove")
	cmd.Flags().StringVar(&opts.Package, "package", "", "package id whose extensions to remove")
	cmd.MarkFlagsMutuallyExclusive("extension", "package")
	cmd.MarkFlagsOneRequired("extension", "package")

	return cmd
}

func runRemove(opts *RemoveOptions, worldDir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	s, err := openSession(ctx, opts.RootOptions, worldDir, opts.dbPath(opts.Database))
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.handleAll(ctx); err != nil {
		_ = formatter.Error(patchErrorCode(err, "E_ORDER"), err.Error(), nil)
		return err
	}

	var removed []unit.Path
	if opts.Extension != "" {
		ext := unit.CleanPath(opts.Extension)
		removed = []unit.Path{ext}
		err = s.engine.RemoveOne(ctx, ext)
	} else {
		pkg := unit.PackageID(opts.Package)
		removed = s.reg.Attributed(pkg)
		err = s.engine.RemoveAllForPackage(ctx, pkg)
	}
	if err != nil {
		_ = formatter.Error(patchErrorCode(err, "E_REMOVE"), err.Error(), nil)
		return WrapExitError(ExitFailure, "remove failed", err)
	}
	if removed == nil {
		removed = []unit.Path{}
	}

	result := RemoveResult{
		Session:  s.engine.Session(),
		Removed:  removed,
		Bindings: s.bindings(),
	}

	if opts.Format == "json" {
		return formatter.Response(CLIResponse{Status: "ok", Data: result, Session: result.Session})
	}

	w := cmd.OutOrStdout()
	if len(removed) == 0 {
		fmt.Fprintf(w, "Package %s has no applied extensions.\n", opts.Package)
	}
	for _, p := range removed {
		fmt.Fprintf(w, "%s removed %s\n", okMark(), pathText(p))
	}
	printBindings(cmd, result.Bindings)
	return nil
}
