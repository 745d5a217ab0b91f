package main

import (
	"database/sql"
	"fmt"

	"github.com/dangerclosesec/studygroups/internal/db"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect the embedded schema migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlDB, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer sqlDB.Close()

		ctx := cmd.Context()
		switch args[0] {
		case "up":
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully")
		case "down":
			if err := db.RollbackMigration(ctx, sqlDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rolled back one migration")
		case "status":
			return db.MigrationStatus(ctx, sqlDB)
		default:
			return fmt.Errorf("unknown migrate action %q", args[0])
		}
		return nil
	},
}
