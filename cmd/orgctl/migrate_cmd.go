package main

import (
	"github.com/spf13/cobra"

	"orgstruct/internal/infrastructure/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *postgres.Migrator) error { return m.Up() })
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *postgres.Migrator) error { return m.Down(steps) })
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func withMigrator(fn func(m *postgres.Migrator) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	m, err := postgres.NewMigrator(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warnw("close migrator", "error", err)
		}
	}()

	if err := fn(m); err != nil {
		return err
	}

	v, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		log.Warnw("schema is dirty", "version", v)
	} else {
		log.Infow("schema migrated", "version", v)
	}
	return nil
}
