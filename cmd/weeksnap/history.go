package main

import (
	"bytes"
	"fmt"

	"github.com/jamesainslie/weeksnap/pkg/weeksnap/manifest"
	"github.com/jamesainslie/weeksnap/pkg/weeksnap/output"
	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		volume string
		days   int
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View past rotations",
		Long: `View the journal of past rotations.

Every rotation, successful or not, is recorded under
$XDG_STATE_HOME/weeksnap/journal. Entries older than
journal.retention_days are removed automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.journal()
			if err != nil {
				return err
			}
			entries, err := m.List(volume, limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}
			return a.render(cmd, func(f output.Formatter, buf *bytes.Buffer) error {
				return f.History(buf, entries)
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of entries to show (0 for all)")
	historyCmd.Flags().StringVar(&volume, "volume", "", "only show rotations of this volume")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one rotation in detail",
		Long:  `Display a journal entry. Any unique prefix of the ID is accepted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.journal()
			if err != nil {
				return err
			}
			entry, err := m.Get(args[0])
			if err != nil {
				return err
			}
			return a.render(cmd, func(f output.Formatter, buf *bytes.Buffer) error {
				return f.Entry(buf, entry)
			})
		},
	}

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old journal entries",
		Long:  `Remove journal entries older than the retention period.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.journal()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.cfg.Journal.RetentionDays
			}
			if days <= 0 {
				printInfo(cmd, "Retention is disabled; nothing removed.")
				return nil
			}
			removed, err := m.Cleanup(days)
			if err != nil {
				return fmt.Errorf("failed to clean history: %w", err)
			}
			printInfo(cmd, "Removed %d journal entries older than %d days.", removed, days)
			return nil
		},
	}
	cleanCmd.Flags().IntVar(&days, "days", 0, "retention in days (default: journal.retention_days)")

	historyCmd.AddCommand(showCmd, cleanCmd)
	return historyCmd
}

// journal opens the configured journal directory.
func (a *app) journal() (*manifest.Manifest, error) {
	m, err := manifest.New(a.cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return m, nil
}

// render writes the output of fn, using the configured formatter, to stdout.
func (a *app) render(cmd *cobra.Command, fn func(output.Formatter, *bytes.Buffer) error) error {
	f, err := output.Get(a.cfg.Output)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fn(f, &buf); err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}
