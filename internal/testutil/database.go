// Package testutil provides shared fixtures for tests: generated statement
// PDFs and migrated SQLite databases.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/storage"
)

// TestDB is a migrated database that is closed when the test ends.
type TestDB struct {
	Storage *storage.SQLiteStorage
	Path    string
	t       *testing.T
}

// Seed adds data to a test database before it is handed to the test.
type Seed func(ctx context.Context, db *storage.SQLiteStorage) error

// WithRules seeds category rules.
func WithRules(rules ...model.CategoryRule) Seed {
	return func(ctx context.Context, db *storage.SQLiteStorage) error {
		for i := range rules {
			if err := db.UpsertRule(ctx, &rules[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithAccounts seeds chart of accounts entries.
func WithAccounts(accounts ...model.Account) Seed {
	return func(ctx context.Context, db *storage.SQLiteStorage) error {
		return db.SaveAccounts(ctx, accounts)
	}
}

// SetupTestDB creates a file-backed database under t.TempDir, runs
// migrations and applies seeds.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.WithRules(model.CategoryRule{
//		UserID: "u1", EntityNameNormalized: "acme traders",
//		Category: "Consulting Income", Type: model.CategoryTypeRevenue,
//	}))
func SetupTestDB(t *testing.T, seeds ...Seed) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	for _, seed := range seeds {
		if err := seed(ctx, db); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}

	return &TestDB{Storage: db, Path: path, t: t}
}

// MustRules returns the stored rules for userID or fails the test.
func (db *TestDB) MustRules(userID string) []model.CategoryRule {
	db.t.Helper()
	rules, err := db.Storage.GetRules(context.Background(), userID)
	if err != nil {
		db.t.Fatalf("failed to load rules: %v", err)
	}
	return rules
}
