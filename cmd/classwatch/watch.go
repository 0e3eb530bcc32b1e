package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"class_availability_notifier/internal/infra/logger"
	"class_availability_notifier/internal/infra/scheduler"
	"class_availability_notifier/internal/infra/telegram"

	"github.com/spf13/cobra"
)

func newWatchCmd(c *cli) *cobra.Command {
	var headed, dryRun bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check on CRON_SPEC until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyOverrides(c.cfg, headed, dryRun)
			log := logger.Component("main")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := setup(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			sched := scheduler.NewWatchScheduler(rt.checkService, logger.Component("scheduler"), c.cfg.CronSpec)

			log.Info("Running initial availability check")
			res, err := sched.RunNow(ctx)
			if res != nil {
				printResult(cmd.OutOrStdout(), res)
			}
			if err != nil {
				log.WithError(err).Error("Initial availability check failed")
			}

			if err := sched.Start(ctx); err != nil {
				return err
			}

			if rt.bot != nil {
				telegram.RegisterBotCommands(ctx, rt.bot, c.cfg.TelegramChatID, c.cfg.ClassName, rt.checkService, sched, logger.Component("telegram"))
				go rt.bot.Start()
				log.Info("Telegram bot commands registered")
			}

			log.Info("Watching. Press Ctrl+C to stop.")
			<-ctx.Done()

			log.Info("Shutting down...")
			if rt.bot != nil {
				rt.bot.Stop()
			}
			sched.Stop()
			log.Info("Shut down gracefully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log notifications instead of sending them")
	return cmd
}
