package main

import (
	"context"
	"fmt"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/repository/file"
	"pizzeria-backend/internal/tariff"
	"pizzeria-backend/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile   string
	tableFile string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(newR2Publisher)
}

func newRootCmdWith(newPublisher publisherFactory) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "tariffctl",
		Short:         "Inspect, check and publish delivery zone tables",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := godotenv.Load(opts.envFile); err != nil {
					return fmt.Errorf("load env file: %w", err)
				}
			}
			logger.Init("development", opts.logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file first")
	root.PersistentFlags().StringVarP(&opts.tableFile, "file", "f", "", "Zone table file (.yaml, .yml or .json); embedded table when empty")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newValidateTableCmd(opts),
		newZonesCmd(opts),
		newQuoteCmd(opts),
		newAdminTokenCmd(),
		newPublishCmd(opts, newPublisher),
	)
	return root
}

// loadTable reads and validates the zone table selected by --file.
func loadTable(ctx context.Context, opts *rootOptions) (*tariff.Table, error) {
	cfg := config.FromEnv()
	raw, err := file.NewZoneSource(opts.tableFile, cfg.Pickup()).LoadZones(ctx)
	if err != nil {
		return nil, err
	}
	return tariff.NewTable(raw)
}
