package tests

import (
	"context"
	"testing"

	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ModelLoaderContractTest is a reusable suite verifying that an adapter
// complies with ports.ModelLoader. want maps every flow id the loader holds
// to the state ids its model declares.
func ModelLoaderContractTest(t *testing.T, loader ports.ModelLoader, want map[string][]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, states := range want {
			m, err := loader.Load(ctx, id)
			require.NoError(t, err, "loading %s", id)
			assert.Equal(t, id, m.ID)
			assert.Equal(t, states, m.StateIDs())
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-flow")
		assert.Error(t, err)
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, len(want))
		for id := range want {
			assert.Contains(t, ids, id)
		}
	})

	t.Run("RegisterModels", func(t *testing.T) {
		models := model.NewModelRegistry()
		require.NoError(t, ports.RegisterModels(ctx, loader, models))
		for id := range want {
			m, err := models.Lookup(id)
			require.NoError(t, err)
			assert.Equal(t, id, m.ID)
		}
	})
}
