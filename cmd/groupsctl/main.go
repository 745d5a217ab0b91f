package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/dangerclosesec/studygroups/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	cfg     *config.Config
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(checkCmd)
}

var rootCmd = &cobra.Command{
	Use:   "groupsctl",
	Short: "groupsctl administers the study groups database",
	Long:  `groupsctl applies migrations, seeds the course catalogue, reads the group audit trail and checks membership invariants.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openGorm connects with the configured DSN. Callers close the returned function.
func openGorm(ctx context.Context) (*gorm.DB, func(), error) {
	level := gormlogger.Silent
	if verbose {
		level = gormlogger.Info
	}
	gdb, err := db.Open(ctx, cfg, level)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("getting database instance: %w", err)
	}
	return gdb, func() { sqlDB.Close() }, nil
}
