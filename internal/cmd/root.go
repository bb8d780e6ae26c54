// Package cmd defines the baseline command tree. Commands are thin: they
// load configuration, open the record store, and delegate to the tracking,
// session, progress and export packages.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/baseline/internal/config"
	"github.com/harrison/baseline/internal/logger"
	"github.com/harrison/baseline/internal/store"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates the root cobra command for baseline.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Behavior-analysis session data collection",
		Long: `Baseline records structured ABA session data: frequency tallies,
duration timers, interval and trial sequences, and ABC observations, with
treatment-plan progress tracking and mastery evaluation.

All data lives in a local embedded database; nothing leaves the machine
except explicit exports.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("data-dir", "", "data directory (default ~/.baseline)")
	cmd.PersistentFlags().String("log-level", "", "log verbosity: trace, debug, info, warn, error")

	cmd.AddCommand(NewClientCommand())
	cmd.AddCommand(NewSessionCommand())
	cmd.AddCommand(NewGoalCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewBackupCommand())

	return cmd
}

// loadConfig builds the effective configuration from defaults, the config
// file, environment overrides and CLI flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	cfg, err := config.LoadFromDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore loads config and opens the record store. The returned cleanup
// closes the store.
func openStore(cmd *cobra.Command) (*config.Config, *store.Store, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, s, func() { s.Close() }, nil
}

// newConsoleLogger builds the console logger for interactive commands.
func newConsoleLogger(cfg *config.Config) *logger.ConsoleLogger {
	return logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)
}
