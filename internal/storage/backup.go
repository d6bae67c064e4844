package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupNotFound = errors.New("backup not found")
	ErrBackupExists   = errors.New("backup already exists")
	ErrInvalidBackup  = errors.New("invalid backup ID")
)

// BackupInfo describes one database snapshot.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// BackupManager snapshots the ledger database into a sibling backups directory.
type BackupManager struct {
	storage *SQLiteStorage
	dir     string
}

var backupTables = []string{"category_rules", "accounts", "journal_entries", "transactions"}

// NewBackupManager creates the backups directory next to the database file.
func NewBackupManager(storage *SQLiteStorage) (*BackupManager, error) {
	if storage.dbPath == ":memory:" {
		return nil, fmt.Errorf("in-memory databases cannot be backed up: %w", ErrInvalidBackup)
	}
	dir := filepath.Join(filepath.Dir(storage.dbPath), "backups")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	return &BackupManager{storage: storage, dir: dir}, nil
}

func validBackupID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidBackup, id)
	}
	return nil
}

// Create writes a consistent snapshot with VACUUM INTO. An empty id is generated from the clock.
func (bm *BackupManager) Create(ctx context.Context, id, description string, auto bool) (*BackupInfo, error) {
	if id == "" {
		prefix := "backup"
		if auto {
			prefix = "auto"
		}
		id = fmt.Sprintf("%s-%s", prefix, time.Now().UTC().Format("20060102-150405"))
	}
	if err := validBackupID(id); err != nil {
		return nil, err
	}

	path := filepath.Join(bm.dir, id+".db")
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrBackupExists)
	}

	version, err := bm.storage.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := bm.rowCounts(ctx, version)
	if err != nil {
		return nil, err
	}

	if _, err := bm.storage.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := &BackupInfo{
		ID:            id,
		CreatedAt:     time.Now().UTC(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     counts,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(bm.dir, id+".meta.json"), data, 0600); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			slog.Error("failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}
	return info, nil
}

func (bm *BackupManager) rowCounts(ctx context.Context, version int) (map[string]int, error) {
	counts := make(map[string]int, len(backupTables))
	for i, table := range backupTables {
		// Tables appear in migration order; skip those the schema has not reached.
		if version < tableVersion(i) {
			continue
		}
		var n int
		if err := bm.storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func tableVersion(i int) int {
	switch i {
	case 0, 1:
		return 1
	case 2:
		return 2
	default:
		return 3
	}
}

// List returns every backup, newest first. Unreadable metadata files are skipped.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	var out []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := bm.load(strings.TrimSuffix(entry.Name(), ".meta.json"))
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (bm *BackupManager) load(id string) (*BackupInfo, error) {
	data, err := os.ReadFile(filepath.Join(bm.dir, id+".meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrBackupNotFound)
		}
		return nil, err
	}
	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to decode backup metadata: %w", err)
	}
	return &info, nil
}

// Delete removes a backup and its metadata.
func (bm *BackupManager) Delete(id string) error {
	if err := validBackupID(id); err != nil {
		return err
	}
	path := filepath.Join(bm.dir, id+".db")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrBackupNotFound)
		}
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	if err := os.Remove(filepath.Join(bm.dir, id+".meta.json")); err != nil {
		slog.Debug("failed to remove backup metadata", "id", id, "error", err)
	}
	return nil
}

// RestoreBackup replaces the database at dbPath with backup id. The database
// must not be open while restoring.
func RestoreBackup(dbPath, id string) error {
	if err := validBackupID(id); err != nil {
		return err
	}
	src := filepath.Join(filepath.Dir(dbPath), "backups", id+".db")
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", id, ErrBackupNotFound)
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}

	safety := dbPath + ".restore-backup"
	if err := copyFile(dbPath, safety); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to preserve current database: %w", err)
	}
	if err := copyFile(src, dbPath); err != nil {
		if restoreErr := copyFile(safety, dbPath); restoreErr != nil {
			slog.Error("failed to roll back after restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	if err := os.Remove(safety); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove restore safety copy", "error", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths are built from the configured database location
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // see above
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
