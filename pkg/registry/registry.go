package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Holder supplies a registered value. Holders let the registry hold entries
// that are built lazily or rebuilt when their source changes.
type Holder[T any] interface {
	Get() (T, error)
	Destroy()
}

// Static is a Holder of a fixed value.
type Static[T any] struct {
	Value T
}

func (h Static[T]) Get() (T, error) { return h.Value, nil }
func (h Static[T]) Destroy()        {}

// NotFoundError is returned by Lookup when neither the registry nor any of
// its ancestors holds the id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with id '%s'", e.Kind, e.ID)
}

// Registry maps ids to holders, delegating misses to an optional parent.
// The parent is not owned: Destroy never reaches it.
type Registry[T any] struct {
	kind string

	mu      sync.RWMutex
	holders map[string]Holder[T]
	parent  *Registry[T]
}

// New creates an empty registry. kind names the entries in errors.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, holders: make(map[string]Holder[T])}
}

// Register binds id to h, replacing any previous holder.
func (r *Registry[T]) Register(id string, h Holder[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holders[id] = h
}

// RegisterValue binds id to a fixed value.
func (r *Registry[T]) RegisterValue(id string, v T) {
	r.Register(id, Static[T]{Value: v})
}

// Lookup returns the value for id from this registry, else from the parent chain.
func (r *Registry[T]) Lookup(id string) (T, error) {
	r.mu.RLock()
	h, ok := r.holders[id]
	parent := r.parent
	r.mu.RUnlock()

	if ok {
		return h.Get()
	}
	if parent != nil {
		return parent.Lookup(id)
	}
	var zero T
	return zero, &NotFoundError{Kind: r.kind, ID: id}
}

// Contains reports whether id resolves here or in the parent chain.
func (r *Registry[T]) Contains(id string) bool {
	r.mu.RLock()
	_, ok := r.holders[id]
	parent := r.parent
	r.mu.RUnlock()

	if ok {
		return true
	}
	return parent != nil && parent.Contains(id)
}

// Count returns the number of local entries.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.holders)
}

// IDs returns the local ids, sorted.
func (r *Registry[T]) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.holders))
	for id := range r.holders {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Parent returns the parent registry, or nil.
func (r *Registry[T]) Parent() *Registry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parent
}

// SetParent sets the registry misses are delegated to.
func (r *Registry[T]) SetParent(p *Registry[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parent = p
}

// Destroy releases every local holder and empties the registry.
func (r *Registry[T]) Destroy() {
	r.mu.Lock()
	holders := r.holders
	r.holders = make(map[string]Holder[T])
	r.mu.Unlock()

	for _, id := range sortedKeys(holders) {
		holders[id].Destroy()
	}
}

func sortedKeys[T any](m map[string]Holder[T]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
