package main

import (
	"fmt"

	"bankgate/internal/db/bunx"
	"bankgate/internal/migrations"
	"bankgate/internal/observability/logging"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending credential store migrations",
		Long:  `Creates the users and authorities tables, applying every pending migration under the migration lock.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger.Info("Connecting to credential store", "database_url", logging.RedactDSN(cfg.Database.URL))
			db, err := bunx.NewDB(ctx, cfg.Database.URL, bunx.Options{MaxConnections: cfg.Database.MaxConnections})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer bunx.Close(db)

			group, err := migrations.Apply(ctx, db)
			if err != nil {
				return err
			}

			if group.ID == 0 {
				logger.Info("No new migrations to apply")
			} else {
				logger.Info("Applied migration group", "group", group.ID, "migrations", len(group.Migrations))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the last migration group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := bunx.NewDB(ctx, cfg.Database.URL, bunx.Options{MaxConnections: cfg.Database.MaxConnections})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer bunx.Close(db)

			group, err := migrations.Rollback(ctx, db)
			if err != nil {
				return err
			}

			if group.ID == 0 {
				logger.Info("No migration groups to roll back")
			} else {
				logger.Info("Rolled back migration group", "group", group.ID)
			}
			return nil
		},
	})

	return cmd
}
