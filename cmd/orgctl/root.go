package main

import (
	"github.com/spf13/cobra"

	"orgstruct/internal/core/config"
	"orgstruct/pkg/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "orgctl",
		Short:         "Organization structure operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd(), newSeedCmd())
	return cmd
}

// setup loads configuration and builds a console logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Development: true})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
