package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"class_availability_notifier/internal/domain/availability"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const timeFormat = "2006-01-02 15:04:05"

func newStatusCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted status and recent checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := openStores(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			renderState(out, c.cfg.ClassName, st.state.Read(ctx))

			if st.history == nil {
				return nil
			}
			entries, err := st.history.ListChecks(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list check history: %w", err)
			}
			renderHistory(out, entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of history rows to show (SQL backends)")
	return cmd
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func renderState(w io.Writer, className string, state availability.PersistedState) {
	t := newTable(w)
	t.SetTitle("Watch state")
	t.AppendHeader(table.Row{"Class", "Last status", "Last checked"})
	checked := "never"
	if state.LastCheckedAt != nil {
		checked = state.LastCheckedAt.Local().Format(timeFormat)
	}
	t.AppendRow(table.Row{className, state.LastStatus, checked})
	t.Render()
}

func renderHistory(w io.Writer, entries []availability.CheckEntry) {
	t := newTable(w)
	t.SetTitle("Recent checks")
	t.AppendHeader(table.Row{"Checked at", "Target", "Status", "Raw", "Notified", "Cycle"})
	for _, e := range entries {
		t.AppendRow(table.Row{
			e.CheckedAt.Local().Format(timeFormat),
			e.Target,
			e.Status,
			e.RawStatus,
			e.Notified,
			e.CycleID,
		})
	}
	if len(entries) == 0 {
		t.AppendFooter(table.Row{"no checks recorded"})
	}
	t.Render()
}
