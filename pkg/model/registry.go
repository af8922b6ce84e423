package model

import (
	"fmt"
	"sync"

	"github.com/aretw0/arbor/pkg/registry"
)

// ModelRegistry holds flow model holders by flow id.
type ModelRegistry struct {
	*registry.Registry[*FlowModel]

	mu      sync.RWMutex
	holders map[string]Holder
}

// NewModelRegistry creates an empty model registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		Registry: registry.New[*FlowModel]("flow model"),
		holders:  make(map[string]Holder),
	}
}

// RegisterModel binds id to h, replacing any previous holder.
func (r *ModelRegistry) RegisterModel(id string, h Holder) {
	r.Register(id, h)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holders[id] = h
}

// Add registers a fixed model under its own id.
func (r *ModelRegistry) Add(m *FlowModel) {
	r.RegisterModel(m.ID, &StaticHolder{Model: m})
}

// Holder returns the local holder of id, without consulting the parent.
func (r *ModelRegistry) Holder(id string) (Holder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.holders[id]
	return h, ok
}

// SetParentRegistry delegates misses to p. A nil p clears the parent.
func (r *ModelRegistry) SetParentRegistry(p *ModelRegistry) {
	if p == nil {
		r.SetParent(nil)
		return
	}
	r.SetParent(p.Registry)
}

// Resolve returns the model of id with its parent chain merged in. The
// returned model is a copy; the registered one is left untouched.
func (r *ModelRegistry) Resolve(id string) (*FlowModel, error) {
	return r.resolve(id, map[string]bool{})
}

func (r *ModelRegistry) resolve(id string, visiting map[string]bool) (*FlowModel, error) {
	if visiting[id] {
		return nil, fmt.Errorf("flow model '%s': parent cycle", id)
	}
	visiting[id] = true
	m, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	out := m.Clone()
	if out.Parent == "" {
		return out, nil
	}
	parent, err := r.resolve(out.Parent, visiting)
	if err != nil {
		return nil, fmt.Errorf("flow model '%s': %w", id, err)
	}
	out.Merge(parent)
	return out, nil
}
