package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	key, err := store.Save("job-1", "students.csv", []byte("prn\nP1\n"))
	require.NoError(t, err)
	assert.Equal(t, "job-1/students.csv", key)

	file, err := store.Open(key)
	require.NoError(t, err)
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "prn\nP1\n", string(content))

	entries, err := os.ReadDir(filepath.Join(root, "job-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")

	require.NoError(t, store.Delete(key))
	require.NoError(t, store.Delete(key))
	_, err = store.Open(key)
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(root, "job-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, tc := range [][2]string{{"..", "escape.csv"}, {"job", "../../escape.csv"}, {"a/b", "x.csv"}, {"", ""}} {
		_, err := store.Save(tc[0], tc[1], []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideBase, tc)
	}
	_, err = store.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideBase)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	oldKey, err := store.Save("job-old", "students.pdf", []byte("old"))
	require.NoError(t, err)
	newKey, err := store.Save("job-new", "students.pdf", []byte("new"))
	require.NoError(t, err)

	oldPath, err := store.Path(oldKey)
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	partial := filepath.Join(root, "job-new", tempPrefix+"123")
	require.NoError(t, os.WriteFile(partial, []byte("x"), 0o600))
	require.NoError(t, os.Chtimes(partial, past, past))

	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-old/students.pdf"}, removed)

	_, err = os.Stat(filepath.Join(root, "job-old"))
	assert.True(t, os.IsNotExist(err))
	_, err = store.Open(newKey)
	assert.NoError(t, err)
	_, err = os.Stat(partial)
	assert.NoError(t, err)
}
