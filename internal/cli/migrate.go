package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/BenWhite02/marketing-kairos-sub004/internal/adapters/turso"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/infrastructure/config"
	"github.com/BenWhite02/marketing-kairos-sub004/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).

Examples:
  kairos migrate      # Run all pending migrations
  kairos migrate 1    # Migrate to version 1
  kairos migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target := -1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[0])
		}
		target = v
	}

	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := turso.NewDB(*cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	runner := migrate.NewRunner(db.DB, logger)
	if err := runner.EnsureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	current, _, err := runner.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Current version: %d\n", current)

	switch {
	case target < 0:
		applied, err := runner.Up(ctx)
		if err != nil {
			return err
		}
		if applied == 0 {
			fmt.Fprintln(out, "No pending migrations")
		}
	case target == current:
		fmt.Fprintln(out, "Already at target version")
		return nil
	default:
		if err := runner.To(ctx, target); err != nil {
			return err
		}
	}

	version, _, err := runner.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	fmt.Fprintf(out, "Now at version: %d\n", version)
	return nil
}
