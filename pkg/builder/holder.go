package builder

import (
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/registry"
)

// FlowHolder builds a flow from a registered model on first use. In
// development mode it rebuilds the flow whenever the model source changed;
// executions already running keep the definition they were linked to until
// they are restored again.
type FlowHolder struct {
	id      string
	builder *Builder
	models  *model.ModelRegistry

	mu   sync.Mutex
	flow *domain.Flow
}

// NewFlowHolder creates a holder for the model id of models.
func NewFlowHolder(id string, b *Builder, models *model.ModelRegistry) *FlowHolder {
	return &FlowHolder{id: id, builder: b, models: models}
}

// Get implements registry.Holder.
func (h *FlowHolder) Get() (*domain.Flow, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.flow != nil && !h.stale() {
		return h.flow, nil
	}
	m, err := h.models.Resolve(h.id)
	if err != nil {
		return h.keep(err)
	}
	f, err := h.builder.Build(m)
	if err != nil {
		return h.keep(err)
	}
	if h.flow != nil {
		h.builder.services.Logger.Info("flow rebuilt", "flow", h.id)
	}
	h.flow = f
	return f, nil
}

// stale refreshes a changed model source and reports whether it did.
func (h *FlowHolder) stale() bool {
	if !h.builder.services.Development {
		return false
	}
	src, ok := h.models.Holder(h.id)
	if !ok || !src.HasChanged() {
		return false
	}
	if err := src.Refresh(); err != nil {
		h.builder.services.Logger.Warn("flow model refresh failed, keeping previous definition", "flow", h.id, "err", err)
		return false
	}
	return true
}

// keep returns the previous flow when a rebuild fails, or err when there is none.
func (h *FlowHolder) keep(err error) (*domain.Flow, error) {
	if h.flow == nil {
		return nil, err
	}
	h.builder.services.Logger.Warn("flow rebuild failed, keeping previous definition", "flow", h.id, "err", err)
	return h.flow, nil
}

// Destroy drops the built flow.
func (h *FlowHolder) Destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flow = nil
}

// RegisterAll registers a FlowHolder in flows for every model of models.
// Subflow references are checked against flows.
func RegisterAll(flows *registry.FlowRegistry, models *model.ModelRegistry, b *Builder) {
	if b.exists == nil {
		b.CheckSubflows(flows.Contains)
	}
	for _, id := range models.IDs() {
		flows.Register(id, NewFlowHolder(id, b, models))
	}
}
