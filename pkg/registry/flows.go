package registry

import (
	"github.com/aretw0/arbor/pkg/domain"
)

// FlowRegistry holds flow definitions by id.
type FlowRegistry struct {
	*Registry[*domain.Flow]
}

// NewFlowRegistry creates an empty flow registry.
func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{Registry: New[*domain.Flow]("flow definition")}
}

// Add registers a built flow under its own id.
func (r *FlowRegistry) Add(f *domain.Flow) {
	r.RegisterValue(f.ID, f)
}

// SetParentRegistry delegates misses to p. A nil p clears the parent.
func (r *FlowRegistry) SetParentRegistry(p *FlowRegistry) {
	if p == nil {
		r.SetParent(nil)
		return
	}
	r.SetParent(p.Registry)
}
