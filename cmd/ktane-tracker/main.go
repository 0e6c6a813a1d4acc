package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ktane-tracker/tracker/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ktane-tracker",
		Short: "KTANE module confidence tracker",
		Long: `ktane-tracker serves the module and mission catalogs, scores missions
against a team's module confidence and generates practice bombs.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and installs the JSON logger at the configured level
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}))
	slog.SetDefault(logger)

	return cfg, nil
}
