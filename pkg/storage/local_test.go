package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.Save("2024/transcript-stu-1.csv", []byte("Level,Reference\n"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "2024", "transcript-stu-1.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Level,Reference\n", string(content))

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsEscapingNames(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../outside.csv", "/etc/passwd", "a/../../b.csv"} {
		_, err := store.Save(name, []byte("x"))
		require.Error(t, err, name)
	}
}
