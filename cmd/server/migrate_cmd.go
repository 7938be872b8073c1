package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"metrologi/internal/platform/postgres"
	"metrologi/migrations"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}
	cmd.AddCommand(
		newMigrateStepCmd(root, "up", "Apply all pending migrations", migrations.Up),
		newMigrateStepCmd(root, "down", "Roll back the most recent migration", migrations.Down),
		newMigrateStepCmd(root, "status", "Print the state of every migration", migrations.Status),
	)
	return cmd
}

func newMigrateStepCmd(root *rootOptions, use, short string, step func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := step(cmd.Context(), db); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "migrate "+use+" finished")
			return nil
		},
	}
}
