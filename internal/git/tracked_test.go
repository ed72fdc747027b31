package git

import (
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "orders.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("y\n"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("data/orders.csv")
	require.NoError(t, err)

	tr, err := TrackedFiles(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.Contains("data/orders.csv"))
	assert.True(t, tr.Contains(filepath.Join(tr.Root, "data", "orders.csv")))
	assert.False(t, tr.Contains("scratch.txt"))
}

func TestTrackedFiles_NotARepo(t *testing.T) {
	_, err := TrackedFiles(t.TempDir())
	assert.Error(t, err)
}

func TestValidateRoot(t *testing.T) {
	_, err := validateRoot("bad\x00path")
	assert.Error(t, err)
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = validateRoot(f)
	assert.Error(t, err)
}
