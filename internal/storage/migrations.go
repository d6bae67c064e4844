package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Category rules and chart of accounts",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS category_rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					entity_name_normalized TEXT NOT NULL,
					category TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('revenue', 'expense')),
					times_applied INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					UNIQUE (user_id, entity_name_normalized)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_category_rules_user ON category_rules(user_id, created_at)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					code TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('asset', 'liability', 'equity', 'revenue', 'expense')),
					balance TEXT NOT NULL DEFAULT '0',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_type_name ON accounts(type, name COLLATE NOCASE)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Journal entries and lines",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS journal_entries (
					entry_id TEXT PRIMARY KEY,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					reference TEXT,
					source_transaction_id TEXT,
					total_debits TEXT NOT NULL,
					total_credits TEXT NOT NULL,
					is_balanced INTEGER NOT NULL,
					requires_review INTEGER NOT NULL,
					review_reasons TEXT,
					review_status TEXT NOT NULL CHECK (review_status IN ('pending', 'approved', 'rejected', 'flagged')),
					posted INTEGER NOT NULL DEFAULT 0 CHECK (posted = 0 OR is_balanced = 1),
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_journal_entries_date ON journal_entries(date)`,
				`CREATE INDEX IF NOT EXISTS idx_journal_entries_status ON journal_entries(review_status)`,

				`CREATE TABLE IF NOT EXISTS journal_lines (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					entry_id TEXT NOT NULL REFERENCES journal_entries(entry_id) ON DELETE CASCADE,
					side TEXT NOT NULL CHECK (side IN ('debit', 'credit')),
					position INTEGER NOT NULL,
					account_code TEXT NOT NULL,
					account_name TEXT NOT NULL,
					amount TEXT NOT NULL,
					description TEXT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_journal_lines_entry ON journal_lines(entry_id)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Processed transactions with classifications",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS transactions (
					user_id TEXT NOT NULL DEFAULT '',
					id TEXT NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					amount TEXT NOT NULL,
					type TEXT NOT NULL,
					balance TEXT,
					reference TEXT,
					category TEXT NOT NULL,
					category_type TEXT NOT NULL,
					classification_source TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (user_id, id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(user_id, date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category)`,
			)
		},
	},
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
