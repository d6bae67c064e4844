package decrypt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempFileManager_CreateDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested")
	manager := NewTempFileManager(base)

	dir, cleanup, err := manager.CreateDir()
	require.NoError(t, err)
	assert.Equal(t, base, filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "finagent_"))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0600))
	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestTempFileManager_DefaultBaseDir(t *testing.T) {
	dir, cleanup, err := NewTempFileManager("").CreateDir()
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, filepath.Clean(os.TempDir()), filepath.Dir(dir))
}

func TestTempFileManager_UniqueDirs(t *testing.T) {
	manager := NewTempFileManager(t.TempDir())

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		dir, cleanup, err := manager.CreateDir()
		require.NoError(t, err)
		defer cleanup()
		assert.False(t, seen[dir])
		seen[dir] = true
	}
}
