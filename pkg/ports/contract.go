package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunExecutionStoreContract runs a suite of tests verifying that an
// ExecutionStore implementation adheres to the interface contract.
func RunExecutionStoreContract(t *testing.T, store ExecutionStore) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405.000000000")

	sample := func(key string) *domain.Execution {
		exec := domain.NewExecution(key, "booking")
		s := exec.Spawn(domain.NewFlow("booking"))
		s.StateID = "form"
		s.Status = domain.SessionPaused
		s.Scope.Put("name", "Ada")
		exec.Conversation.Put("user", "u-1")
		exec.History = []string{"booking:form"}
		return exec
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sample(key)))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, loaded.Key)
		assert.Equal(t, "booking", loaded.FlowID)
		assert.Equal(t, domain.StatusActive, loaded.Status)
		assert.Equal(t, []string{"booking:form"}, loaded.History)
		assert.True(t, loaded.Restored(), "a loaded execution must be re-linked before use")

		s := loaded.ActiveSession()
		require.NotNil(t, s)
		assert.Equal(t, "form", s.StateID)
		assert.Equal(t, domain.SessionPaused, s.Status)
		assert.Equal(t, "Ada", s.FlowScope().Get("name"))
		assert.Same(t, loaded.Conversation, s.ConversationScope())
		assert.Equal(t, "u-1", s.ConversationScope().Get("user"))
	})

	t.Run("Save stores a snapshot", func(t *testing.T) {
		exec := sample(key + "-snap")
		require.NoError(t, store.Save(ctx, exec))
		defer func() { _ = store.Delete(ctx, exec.Key) }()

		exec.ActiveSession().Scope.Put("name", "Grace")
		loaded, err := store.Load(ctx, exec.Key)
		require.NoError(t, err)
		assert.Equal(t, "Ada", loaded.ActiveSession().FlowScope().Get("name"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sample(key)))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrExecutionNotFound, "Load after Delete should return ErrExecutionNotFound")
		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1, k2 := key+"-1", key+"-2"
		require.NoError(t, store.Save(ctx, sample(k1)))
		require.NoError(t, store.Save(ctx, sample(k2)))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
