package main

import (
	"context"
	"errors"
	"time"

	"class_availability_notifier/internal/infra/devtools"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTargetsCmd(c *cli) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the pages of the Chrome at BROWSER_DEBUGGER_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DebuggerURL == "" {
				return errors.New("BROWSER_DEBUGGER_URL is not set")
			}
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			targets, err := devtools.ListTargets(ctx, c.cfg.DebuggerURL, !all)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Type", "Title", "URL"})
			for _, tg := range targets {
				t.AppendRow(table.Row{tg.ID, tg.Type, tg.Title, tg.URL})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include workers, extensions and other non-page targets")
	return cmd
}
