package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.lock")

	l1 := New(path)
	acquired, err := l1.TryAcquire()
	require.NoError(t, err)
	require.True(t, acquired)

	l2 := New(path)
	acquired, err = l2.TryAcquire()
	require.NoError(t, err)
	assert.False(t, acquired, "second holder must be refused")

	require.NoError(t, l1.Release())

	acquired, err = l2.TryAcquire()
	require.NoError(t, err)
	assert.True(t, acquired, "lock must be available after release")
	require.NoError(t, l2.Release())
}

func TestAtomicWriteCreatesParentAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "backup.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"version":1}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not survive the write")
}

func TestAtomicWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, AtomicWrite(path, []byte("first")))
	require.NoError(t, AtomicWrite(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}
