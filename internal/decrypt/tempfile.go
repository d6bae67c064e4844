package decrypt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TempFileManager handles creation and cleanup of scratch files used while rebuilding documents.
type TempFileManager struct {
	baseDir string
}

// NewTempFileManager creates a new temp file manager. An empty baseDir uses the OS temp directory.
func NewTempFileManager(baseDir string) *TempFileManager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &TempFileManager{
		baseDir: baseDir,
	}
}

// CreateDir makes a private working directory.
// Returns the directory path and a cleanup function that removes it with its contents.
func (t *TempFileManager) CreateDir() (string, func(), error) {
	if err := os.MkdirAll(t.baseDir, 0700); err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp directory: %w", err)
	}

	dir := filepath.Join(t.baseDir, "finagent_"+uuid.New().String())
	if err := os.Mkdir(dir, 0700); err != nil {
		return "", func() {}, fmt.Errorf("failed to create work directory: %w", err)
	}

	cleanup := func() {
		_ = os.RemoveAll(dir)
	}

	return dir, cleanup, nil
}
