package safeio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFilePreservePerms(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "home.json")

	require.NoError(t, WriteFilePreservePerms(testFile, []byte(`{"id":"home"}`)))

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"home"}`, string(content))

	stat, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), stat.Mode().Perm())
}

func TestWriteFilePreservePermsExisting(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "group.json")
	require.NoError(t, os.WriteFile(testFile, []byte("old"), 0o600))
	require.NoError(t, os.Chmod(testFile, 0o600))

	require.NoError(t, WriteFilePreservePerms(testFile, []byte("new")))

	content, err := os.ReadFile(testFile)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))

	stat, err := os.Stat(testFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestCopyDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "logos")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.webp"), []byte{1, 2, 3}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.webp"), []byte{4}, 0o644))

	dst := filepath.Join(t.TempDir(), "backup", "logos")
	require.NoError(t, CopyDir(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "a.webp"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	got, err = os.ReadFile(filepath.Join(dst, "nested", "b.webp"))
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, got)
}

func TestCopyDirRefusesExistingDestination(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	err := CopyDir(src, dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExists)
}

func TestCopyDirMissingSource(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")
	err := CopyDir(filepath.Join(t.TempDir(), "missing"), dst)
	require.Error(t, err)
	assert.NoDirExists(t, dst)
}

func TestIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(file))
	assert.False(t, IsDir(filepath.Join(dir, "missing")))
}
