package commands

import (
	"time"

	"github.com/spf13/cobra"
)

// JournalOptions holds options for the journal command.
type JournalOptions struct {
	Limit int
}

// NewJournalCommand creates the journal command.
func NewJournalCommand() *cobra.Command {
	opts := &JournalOptions{}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded operation outcomes",
		Long:  `List the most recent table operations and migrations recorded in the journal, newest first.`,
		Example: `  # Show the last 20 entries
  leapdest journal

  # Show everything as JSON
  leapdest journal --limit 0 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runJournal(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum entries to show (0 for all)")

	return cmd
}

func runJournal(cmd *cobra.Command, opts *JournalOptions) error {
	cc := NewCommandContextWithoutStore(cmd)

	j, err := openJournal(cmd.Context(), cc)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	entries, err := j.List(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	if cc.Renderer.IsJSON() {
		return cc.Renderer.JSON(entries)
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{
			e.RecordedAt.Local().Format(time.DateTime),
			e.Operation,
			e.Schema + "." + e.Table,
			e.Outcome,
			e.Duration.String(),
			e.Detail,
			e.Error,
		}
	}
	cc.Renderer.Table("", []string{"time", "operation", "table", "outcome", "duration", "detail", "error"}, rows)
	return nil
}
