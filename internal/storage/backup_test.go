package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

func TestBackupManager_CreateListRestore(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.SaveAccounts(ctx, []model.Account{
		{Code: "1000", Name: "Cash/Operating Account", Type: model.AccountTypeAsset},
	}); err != nil {
		t.Fatalf("SaveAccounts() error = %v", err)
	}

	bm, err := NewBackupManager(store)
	if err != nil {
		t.Fatalf("NewBackupManager() error = %v", err)
	}

	info, err := bm.Create(ctx, "before-import", "one account", false)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if info.RowCounts["accounts"] != 1 || info.SchemaVersion != ExpectedSchemaVersion {
		t.Errorf("backup info = %+v", info)
	}
	if _, err := bm.Create(ctx, "before-import", "", false); !errors.Is(err, ErrBackupExists) {
		t.Errorf("Create() duplicate error = %v, want ErrBackupExists", err)
	}
	if _, err := bm.Create(ctx, "../escape", "", false); !errors.Is(err, ErrInvalidBackup) {
		t.Errorf("Create() traversal error = %v, want ErrInvalidBackup", err)
	}

	auto, err := bm.Create(ctx, "", "pre-migration", true)
	if err != nil {
		t.Fatalf("Create() auto error = %v", err)
	}

	list, err := bm.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d backups, want 2", len(list))
	}

	// Change the live database, then roll it back.
	if err := store.SaveAccounts(ctx, []model.Account{
		{Code: "4000", Name: "Sales Revenue", Type: model.AccountTypeRevenue},
	}); err != nil {
		t.Fatalf("SaveAccounts() error = %v", err)
	}
	dbPath := store.Path()
	_ = store.Close()

	if err := RestoreBackup(dbPath, "before-import"); err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}
	restored, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = restored.Close() }()

	chart, err := restored.GetChart(ctx)
	if err != nil {
		t.Fatalf("GetChart() error = %v", err)
	}
	if got := len(chart.All()); got != 1 {
		t.Errorf("restored chart has %d accounts, want 1", got)
	}

	if err := bm.Delete(auto.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := bm.Delete(auto.ID); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrBackupNotFound", err)
	}
	if err := RestoreBackup(filepath.Join(t.TempDir(), "x.db"), "missing"); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("RestoreBackup() error = %v, want ErrBackupNotFound", err)
	}
}

func TestNewBackupManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := NewBackupManager(store); !errors.Is(err, ErrInvalidBackup) {
		t.Errorf("NewBackupManager() error = %v, want ErrInvalidBackup", err)
	}
}
