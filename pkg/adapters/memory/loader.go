package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/model"
)

// Loader implements ports.ModelLoader over raw YAML or JSON sources held
// in memory. Sources may be replaced at runtime with Set.
type Loader struct {
	mu      sync.RWMutex
	sources map[string][]byte
}

// NewLoader creates a loader from raw sources keyed by flow id.
func NewLoader(data map[string]string) *Loader {
	sources := make(map[string][]byte, len(data))
	for k, v := range data {
		sources[k] = []byte(v)
	}
	return &Loader{sources: sources}
}

// NewFromModels creates a loader from model values.
// This handles serialization automatically, improving DX for tests.
func NewFromModels(models ...*model.FlowModel) (*Loader, error) {
	l := &Loader{sources: make(map[string][]byte, len(models))}
	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("flow model missing ID")
		}
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal flow model %s: %w", m.ID, err)
		}
		l.sources[m.ID] = data
	}
	return l, nil
}

// Set replaces the source of id.
func (l *Loader) Set(id, src string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[id] = []byte(src)
}

// Load parses the source of id.
func (l *Loader) Load(ctx context.Context, id string) (*model.FlowModel, error) {
	l.mu.RLock()
	data, ok := l.sources[id]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("flow model not found: %s", id)
	}
	m, err := model.Parse(data)
	if err != nil {
		return nil, err
	}
	if m.ID != id {
		return nil, fmt.Errorf("flow model %s declares id %q", id, m.ID)
	}
	return m, nil
}

// List returns every flow id, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.sources))
	for k := range l.sources {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids, nil
}
