package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

An existing database is backed up automatically before pending migrations
are applied. Every other command also migrates on startup.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the automatic backup before migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dbPath := cfg.Storage.SQLitePath

	slog.Info("Starting database migration",
		"database", dbPath,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(out, "Database:        %s\n", dbPath)
		fmt.Fprintf(out, "Current version: %d\n", current)
		fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d migrations pending", storage.ExpectedSchemaVersion-current)))
		} else {
			fmt.Fprintln(out, cli.FormatSuccess("Schema is up to date"))
		}
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Schema already at version %d", current)))
		return nil
	}

	if current > 0 && !noBackup && dbPath != ":memory:" {
		manager, err := storage.NewBackupManager(store)
		if err != nil {
			return err
		}
		info, err := manager.Create(ctx, "", fmt.Sprintf("before migration %d to %d", current, storage.ExpectedSchemaVersion), true)
		if err != nil {
			return fmt.Errorf("failed to back up before migrating: %w", err)
		}
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Backed up to %s (%s)", info.ID, formatFileSize(info.FileSize))))
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrated from version %d to %d", current, storage.ExpectedSchemaVersion)))
	return nil
}
