package model

import (
	"crypto/sha256"
	"sync"

	"github.com/aretw0/arbor/pkg/registry"
)

// Holder supplies a flow model and knows when its source changed.
type Holder interface {
	registry.Holder[*FlowModel]
	// HasChanged reports whether the source differs from the model last returned.
	HasChanged() bool
	// Refresh reloads the model from its source.
	Refresh() error
}

// StaticHolder holds a model that never changes.
type StaticHolder struct {
	Model *FlowModel
}

func (h *StaticHolder) Get() (*FlowModel, error) { return h.Model, nil }
func (h *StaticHolder) Destroy()                 {}
func (h *StaticHolder) HasChanged() bool         { return false }
func (h *StaticHolder) Refresh() error           { return nil }

// SourceHolder parses a model from raw bytes returned by a load function.
// Change detection compares a digest of the bytes.
type SourceHolder struct {
	load  func() ([]byte, error)
	parse func([]byte) (*FlowModel, error)

	mu     sync.Mutex
	model  *FlowModel
	digest [sha256.Size]byte
}

// NewSourceHolder creates a holder reading from load and decoding with Parse.
func NewSourceHolder(load func() ([]byte, error)) *SourceHolder {
	return &SourceHolder{load: load, parse: Parse}
}

// Get returns the model, loading it on first use.
func (h *SourceHolder) Get() (*FlowModel, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.model == nil {
		if err := h.refresh(); err != nil {
			return nil, err
		}
	}
	return h.model, nil
}

func (h *SourceHolder) HasChanged() bool {
	data, err := h.load()
	if err != nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.model != nil && sha256.Sum256(data) != h.digest
}

func (h *SourceHolder) Refresh() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refresh()
}

func (h *SourceHolder) refresh() error {
	data, err := h.load()
	if err != nil {
		return err
	}
	m, err := h.parse(data)
	if err != nil {
		return err
	}
	h.model = m
	h.digest = sha256.Sum256(data)
	return nil
}

func (h *SourceHolder) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.model = nil
}
