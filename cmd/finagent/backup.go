package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/cli"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, restore, and delete snapshots of the ledger database.

Backups let you save the ledger before bulk posting or re-categorizing and
roll back if the result is wrong.`,
		Example: `  # Snapshot before posting a quarter
  finagent backup create --id pre-q1 --description "before Q1 posting"

  # List all backups
  finagent backup list

  # Roll back
  finagent backup restore pre-q1`,
	}

	cmd.AddCommand(backupCreateCmd())
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	cmd.AddCommand(backupDeleteCmd())

	return cmd
}

// withBackupManager opens the database and hands a backup manager to fn.
func withBackupManager(ctx context.Context, fn func(*storage.BackupManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	manager, err := storage.NewBackupManager(store)
	if err != nil {
		return fmt.Errorf("failed to create backup manager: %w", err)
	}
	return fn(manager)
}

func backupCreateCmd() *cobra.Command {
	var id, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withBackupManager(ctx, func(manager *storage.BackupManager) error {
				info, err := manager.Create(ctx, id, description, false)
				if err != nil {
					return fmt.Errorf("failed to create backup: %w", err)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s Created backup %s (%s)\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(info.ID),
					formatFileSize(info.FileSize))
				if info.Description != "" {
					fmt.Fprintf(out, "  Description: %s\n", info.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&id, "id", "t", "", "backup name (generated if not provided)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description of the backup")

	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackupManager(cmd.Context(), func(manager *storage.BackupManager) error {
				backups, err := manager.List()
				if err != nil {
					return fmt.Errorf("failed to list backups: %w", err)
				}
				return renderBackups(cmd.OutOrStdout(), backups)
			})
		},
	}
}

func renderBackups(w io.Writer, backups []storage.BackupInfo) error {
	if len(backups) == 0 {
		_, err := fmt.Fprintln(w, cli.SubtleStyle.Render("No backups found."))
		return err
	}

	for _, b := range backups {
		kind := "manual"
		if b.IsAuto {
			kind = "auto"
		}
		line := fmt.Sprintf("%s  %s  %s  v%d  %d entries  %d transactions  %s",
			cli.InfoStyle.Render(b.ID),
			b.CreatedAt.Local().Format(time.DateTime),
			formatFileSize(b.FileSize),
			b.SchemaVersion,
			b.RowCounts["journal_entries"],
			b.RowCounts["transactions"],
			cli.SubtleStyle.Render(kind))
		if b.Description != "" {
			line += "  " + b.Description
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func backupRestoreCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <backup-id>",
		Short: "Restore the database from a backup",
		Long:  `Replace the current database with a backup.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("This will replace your current database with backup %s.", id))
				if err != nil || !ok {
					return err
				}
			}

			if err := storage.RestoreBackup(cfg.Storage.SQLitePath, id); err != nil {
				return fmt.Errorf("failed to restore backup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Restored from backup %s\n",
				cli.SuccessStyle.Render(cli.SuccessIcon),
				cli.InfoStyle.Render(id))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

func backupDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <backup-id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("This will permanently delete backup %s.", id))
				if err != nil || !ok {
					return err
				}
			}

			return withBackupManager(cmd.Context(), func(manager *storage.BackupManager) error {
				if err := manager.Delete(id); err != nil {
					return fmt.Errorf("failed to delete backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted backup %s\n",
					cli.SuccessStyle.Render(cli.SuccessIcon),
					cli.InfoStyle.Render(id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation prompt")

	return cmd
}

// confirm asks a yes/no question on the command's input. Without a terminal
// the caller must pass --force.
func confirm(cmd *cobra.Command, warning string) (bool, error) {
	if cmd.InOrStdin() == io.Reader(os.Stdin) && !stdinIsTerminal() {
		return false, common.NewUserError("refusing to continue without confirmation; pass --force",
			fmt.Errorf("%w: confirmation required", common.ErrInvalidConfig))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n\nContinue? (y/N) ", cli.WarningStyle.Render(cli.WarningIcon), warning)

	response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(response)), "y") {
		fmt.Fprintln(out, cli.SubtleStyle.Render("Cancelled."))
		return false, nil
	}
	return true, nil
}
