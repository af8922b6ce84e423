package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/model"
)

// WriteFlows writes files (name to content) into a fresh temporary
// directory and returns its absolute path.
func WriteFlows(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

// FlowRepo initializes a Loam repository of flow models over files and
// returns its directory. Documents written to the directory later are
// visible to the repository.
func FlowRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, *loam.TypedRepository[model.FlowModel]) {
	t.Helper()
	dir := WriteFlows(t, files)
	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "init loam repository")
	return dir, loam.NewTypedRepository[model.FlowModel](repo)
}
