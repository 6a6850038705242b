// Package cli implements the patchwork command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file; empty uses PATCHWORK_CONFIG or the default location
	Strict  bool   // overrides order.strict when set
	NoColor bool

	cfg    config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the patchwork CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "patchwork",
		Short: "patchwork - ordered runtime patching",
		Long: `Apply, remove and trace extension patches over a world of base units.

A world is a directory of CUE files declaring base units, extension
packages and the package load order. Extensions patch the unit their
parent is bound at; patches on ancestors always apply before patches on
descendants.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (TOML)")
	cmd.PersistentFlags().BoolVar(&opts.Strict, "strict", false, "fail ordering when a package is missing from the load order")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewOrderCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// setup loads configuration, applies flag overrides and installs the logger.
// Logs go to the command's stderr so JSON output stays parseable.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Order.Strict = o.Strict
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.cfg = cfg
	o.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
	setColor(cmd.OutOrStdout(), o.NoColor)
	return nil
}

// dbPath returns the flag value, falling back to database.path.
func (o *RootOptions) dbPath(flag string) string {
	if flag != "" {
		return flag
	}
	return o.cfg.Database.Path
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
