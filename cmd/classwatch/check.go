package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"class_availability_notifier/internal/app"

	"github.com/spf13/cobra"
)

func newCheckCmd(c *cli) *cobra.Command {
	var (
		headed    bool
		dryRun    bool
		alertMode string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one availability check and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyOverrides(c.cfg, headed, dryRun)
			if alertMode != "" {
				c.cfg.AlertMode = alertMode
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := setup(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.checkService.Check(ctx)
			if res != nil {
				printResult(cmd.OutOrStdout(), res)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log notifications instead of sending them")
	cmd.Flags().StringVar(&alertMode, "alert-mode", "", "override ALERT_MODE (always, never, test, available, on-change)")
	return cmd
}

func printResult(w io.Writer, res *app.CycleResult) {
	line := res.Record.Message()
	if res.Notified {
		line += " Notification sent."
	}
	fmt.Fprintln(w, line)
}
