package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ExecutionStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunExecutionStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	exec := domain.NewExecution("e1", "booking")
	exec.Spawn(domain.NewFlow("booking"))
	require.NoError(t, store.Save(ctx, exec))

	_, err := os.Stat(filepath.Join(dir, "e1.json"))
	require.NoError(t, err, "executions are stored as <key>.json")

	// Leftover temp files from a crashed write are not executions.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-e2-123.json"), []byte("{"), 0644))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, keys)
}

func TestFileStore_RejectsUnsafeKeys(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Load(ctx, key)
		assert.Error(t, err, "key %q", key)
		assert.NotErrorIs(t, err, domain.ErrExecutionNotFound)
	}
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
