package main

import (
	"fmt"
	"os"

	"class_availability_notifier/internal/infra/config"
	"class_availability_notifier/internal/infra/logger"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// cli carries the configuration loaded before any subcommand runs.
type cli struct {
	cfg *config.AppConfig
}

func NewRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "classwatch",
		Short:         "Watches a class schedule and notifies when a spot opens up",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			logger.Init(cfg)
			c.cfg = cfg
			return nil
		},
	}

	root.AddCommand(newCheckCmd(c))
	root.AddCommand(newWatchCmd(c))
	root.AddCommand(newStatusCmd(c))
	root.AddCommand(newTargetsCmd(c))
	root.AddCommand(newVersionCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		// Skip config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "classwatch %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
