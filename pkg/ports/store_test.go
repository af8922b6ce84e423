package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// MockStore keeps cloned snapshots in a map, the smallest store that
// honors the contract.
type MockStore struct {
	mu   sync.Mutex
	data map[string]*domain.Execution
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]*domain.Execution)}
}

func (m *MockStore) Save(ctx context.Context, exec *domain.Execution) error {
	c, err := exec.Clone()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[exec.Key] = c
	return nil
}

func (m *MockStore) Load(ctx context.Context, key string) (*domain.Execution, error) {
	m.mu.Lock()
	exec, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	return exec.Clone()
}

func (m *MockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func TestExecutionStore_Contract(t *testing.T) {
	ports.RunExecutionStoreContract(t, NewMockStore())
}
