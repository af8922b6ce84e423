package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Store implements ports.ExecutionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Execution
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Execution),
	}
}

// Save keeps a deep copy of exec, the same snapshot a serializing store keeps.
func (s *Store) Save(ctx context.Context, exec *domain.Execution) error {
	snapshot, err := exec.Clone()
	if err != nil {
		return fmt.Errorf("failed to snapshot execution %s: %w", exec.Key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[exec.Key] = snapshot
	return nil
}

// Load returns a copy so callers cannot mutate the stored snapshot.
func (s *Store) Load(ctx context.Context, key string) (*domain.Execution, error) {
	s.mu.RLock()
	exec, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrExecutionNotFound
	}
	return exec.Clone()
}

// Delete removes the execution.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
