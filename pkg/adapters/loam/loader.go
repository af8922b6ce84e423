package loam

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.ModelLoader. Each document holds
// one flow model in its frontmatter (Markdown, JSON or YAML files).
type Loader struct {
	Repo *loam.TypedRepository[model.FlowModel]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[model.FlowModel]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at path and wraps it.
func Open(path string) (*Loader, error) {
	repo, err := loam.Init(path,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repository at %s: %w", path, err)
	}
	return New(loam.NewTypedRepository[model.FlowModel](repo)), nil
}

// Load retrieves the model of flow id. Loam resolves "booking" to
// booking.md, booking.json or booking.yaml.
func (l *Loader) Load(ctx context.Context, id string) (*model.FlowModel, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	m, err := toModel(doc.ID, doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("flow document %s: %w", doc.ID, err)
	}
	if m.ID != id {
		return nil, fmt.Errorf("flow document %s declares id %q", doc.ID, m.ID)
	}
	return m, nil
}

// List returns the flow ids of every document, sorted.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: flow '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
