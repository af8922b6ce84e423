package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arbor/pkg/domain"
)

type countingHolder struct {
	flow      *domain.Flow
	destroyed int
}

func (h *countingHolder) Get() (*domain.Flow, error) { return h.flow, nil }
func (h *countingHolder) Destroy()                   { h.destroyed++ }

func TestFlowRegistry_ParentDelegation(t *testing.T) {
	parent := NewFlowRegistry()
	child := NewFlowRegistry()
	child.SetParentRegistry(parent)

	parent.Add(domain.NewFlow("bar"))
	child.Add(domain.NewFlow("foo"))

	foo, err := child.Lookup("foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", foo.ID)

	bar, err := child.Lookup("bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", bar.ID)

	_, err = parent.Lookup("foo")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "foo", notFound.ID)

	assert.True(t, child.Contains("bar"))
	assert.False(t, parent.Contains("foo"))
	assert.Equal(t, 1, child.Count(), "count is local")
	assert.Equal(t, []string{"foo"}, child.IDs())
	assert.Same(t, parent.Registry, child.Parent())
}

func TestFlowRegistry_LocalShadowsParent(t *testing.T) {
	parent := NewFlowRegistry()
	child := NewFlowRegistry()
	child.SetParentRegistry(parent)

	fromParent := domain.NewFlow("shared")
	fromChild := domain.NewFlow("shared")
	parent.Add(fromParent)
	child.Add(fromChild)

	got, err := child.Lookup("shared")
	require.NoError(t, err)
	assert.Same(t, fromChild, got)
}

func TestRegistry_ReplaceAndDestroy(t *testing.T) {
	r := New[*domain.Flow]("flow")
	first := &countingHolder{flow: domain.NewFlow("a")}
	second := &countingHolder{flow: domain.NewFlow("a")}

	r.Register("a", first)
	r.Register("a", second)

	got, err := r.Lookup("a")
	require.NoError(t, err)
	assert.Same(t, second.flow, got, "last registration wins")
	assert.Equal(t, 1, r.Count())

	parent := New[*domain.Flow]("flow")
	parentHolder := &countingHolder{flow: domain.NewFlow("p")}
	parent.Register("p", parentHolder)
	r.SetParent(parent)

	r.Destroy()
	assert.Equal(t, 1, second.destroyed)
	assert.Zero(t, parentHolder.destroyed, "the parent is not owned")
	assert.Zero(t, r.Count())
	assert.True(t, r.Contains("p"))
}

func TestRegistry_HolderErrors(t *testing.T) {
	r := New[string]("thing")
	boom := errors.New("boom")
	r.Register("bad", failingHolder{err: boom})

	_, err := r.Lookup("bad")
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	r := New[int]("number")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.RegisterValue("n", i)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("n")
		}()
	}
	wg.Wait()
	assert.True(t, r.Contains("n"))
}

type failingHolder struct{ err error }

func (h failingHolder) Get() (string, error) { return "", h.err }
func (h failingHolder) Destroy()             {}
