package main

import (
	"context"
	"time"

	"github.com/SergeiKhy/sus/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the links schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger, _, err := newLogger(cfg.App)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, closeStore, err := openStore(ctx, cfg.DB, logger)
		if err != nil {
			return err
		}
		closeStore()

		logger.Info("Schema is up to date")
		return nil
	},
}
