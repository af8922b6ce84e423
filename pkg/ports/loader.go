package ports

import (
	"context"
	"encoding/json"

	"github.com/aretw0/arbor/pkg/model"
)

// ModelLoader retrieves flow models from a source such as a directory of
// documents or an in-memory map.
type ModelLoader interface {
	// Load returns the model of the flow id.
	Load(ctx context.Context, id string) (*model.FlowModel, error)

	// List returns the ids of every flow the source holds.
	List(ctx context.Context) ([]string, error)
}

// RegisterModels registers a holder in models for every flow listed by
// loader. Holders reload through the loader, so a changed source is picked
// up by flows built in development mode. ctx is kept for those reloads.
func RegisterModels(ctx context.Context, loader ModelLoader, models *model.ModelRegistry) error {
	ids, err := loader.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		models.RegisterModel(id, model.NewSourceHolder(func() ([]byte, error) {
			m, err := loader.Load(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(m)
		}))
	}
	return nil
}
