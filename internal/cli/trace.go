package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/patchwork/internal/store"
	"github.com/roach88/patchwork/internal/unit"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - filter to one session
	Target   string // optional - filter to one target
}

// TraceResult holds the trace output.
type TraceResult struct {
	Sessions []string            `json:"sessions"`
	Entries  []unit.JournalEntry `json:"entries"`
	Stats    TraceStats          `json:"stats"`
}

// TraceStats counts journal entries per op.
type TraceStats struct {
	Total         int `json:"total"`
	Applies       int `json:"applies"`
	Replays       int `json:"replays"`
	Reverts       int `json:"reverts"`
	Removes       int `json:"removes"`
	PackageRemove int `json:"package_removes"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the patch journal",
		Long: `Print the journal of patch transitions recorded in a database.

Each entry is one transition (apply, replay, revert, remove,
remove_package) stamped with a strictly increasing seq and the session
token of the top-level operation it belongs to. Entries are printed in seq
order, grouped by session.

Examples:
  patchwork trace --db ./patchwork.db
  patchwork trace --db ./patchwork.db --session 0192f0c4-...
  patchwork trace --db ./patchwork.db --target res/root --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal database (defaults to database.path)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only entries of this session")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only entries that touched this target")
	cmd.MarkFlagsMutuallyExclusive("session", "target")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	dbPath := opts.dbPath(opts.Database)
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set database.path")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var entries []unit.JournalEntry
	switch {
	case opts.Session != "":
		entries, err = st.ReadSession(ctx, opts.Session)
	case opts.Target != "":
		entries, err = st.ReadTarget(ctx, unit.CleanPath(opts.Target))
	default:
		entries, err = st.ReadJournal(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := TraceResult{
		Sessions: sessionsOf(entries),
		Entries:  entries,
		Stats:    traceStats(entries),
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return formatter.Success(result)
	}

	return outputTraceText(cmd, result)
}

// sessionsOf returns the distinct sessions of entries in first-seen order.
func sessionsOf(entries []unit.JournalEntry) []string {
	sessions := []string{}
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.Session] {
			seen[e.Session] = true
			sessions = append(sessions, e.Session)
		}
	}
	return sessions
}

func traceStats(entries []unit.JournalEntry) TraceStats {
	stats := TraceStats{Total: len(entries)}
	for _, e := range entries {
		switch e.Op {
		case unit.OpApply:
			stats.Applies++
		case unit.OpReplay:
			stats.Replays++
		case unit.OpRevert:
			stats.Reverts++
		case unit.OpRemove:
			stats.Removes++
		case unit.OpRemovePackage:
			stats.PackageRemove++
		}
	}
	return stats
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()

	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "No journal entries found.")
		return nil
	}

	session := ""
	for i, e := range result.Entries {
		if i == 0 || e.Session != session {
			session = e.Session
			fmt.Fprintf(w, "Session %s\n", session)
		}
		fmt.Fprintf(w, "  [%d] %s\n", e.Seq, describeEntry(e))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d entries in %d session(s)\n", result.Stats.Total, len(result.Sessions))
	return nil
}

func describeEntry(e unit.JournalEntry) string {
	switch e.Op {
	case unit.OpApply, unit.OpReplay:
		return fmt.Sprintf("%s %s -> %s (package %s, depth %d)", e.Op, pathText(e.Extension), pathText(e.Target), e.Package, e.Depth)
	case unit.OpRevert:
		return fmt.Sprintf("%s %s", e.Op, pathText(e.Target))
	case unit.OpRemove:
		return fmt.Sprintf("%s %s from %s (%d remaining)", e.Op, pathText(e.Extension), pathText(e.Target), e.Depth)
	case unit.OpRemovePackage:
		return fmt.Sprintf("%s %s", e.Op, e.Package)
	default:
		return e.Op
	}
}
