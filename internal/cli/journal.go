package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/listenleak/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Session  string // optional - restrict to one session
}

// SessionEntries is one session's journal in sequence order.
type SessionEntries struct {
	Session string          `json:"session"`
	Entries []journal.Entry `json:"entries"`
}

// JournalResult holds the journal command output.
type JournalResult struct {
	Sessions []SessionEntries `json:"sessions"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recorded journal entries",
		Long: `Show the operations recorded by "listenleak run --journal".

Lists every session in the order it was first recorded, or only the
session given with --session.

Examples:
  listenleak journal --db ./leaks.db
  listenleak journal --db ./leaks.db --session test-session-0001 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only show this session")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening would create an empty journal; a typo should fail instead.
	if _, err := os.Stat(opts.Database); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", opts.Database))
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	sessions := []string{opts.Session}
	if opts.Session == "" {
		sessions, err = j.Sessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
	}

	result := JournalResult{Sessions: make([]SessionEntries, 0, len(sessions))}
	for _, session := range sessions {
		entries, err := j.Entries(ctx, session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		result.Sessions = append(result.Sessions, SessionEntries{Session: session, Entries: entries})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeJournalText(formatter, result)
	return nil
}

func writeJournalText(f *OutputFormatter, result JournalResult) {
	w := f.Writer
	for _, s := range result.Sessions {
		fmt.Fprintf(w, "session %s (%d entries)\n", s.Session, len(s.Entries))
		for _, e := range s.Entries {
			fmt.Fprintf(w, "  %4d  %-13s %s\n", e.Seq, e.Op, describeEntry(e))
		}
	}
	if len(result.Sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
	}
}

func describeEntry(e journal.Entry) string {
	switch e.Op {
	case journal.OpAdd, journal.OpRemove:
		if e.Listener == e.Identity {
			return fmt.Sprintf("%s %s", e.EventType, e.Listener)
		}
		return fmt.Sprintf("%s %s (%s)", e.EventType, e.Listener, e.Identity)
	case journal.OpMeasure:
		return fmt.Sprintf("%s %s", e.Name, e.Detail)
	default:
		return e.Name
	}
}
