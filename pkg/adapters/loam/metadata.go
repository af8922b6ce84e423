package loam

import (
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/model"
)

// DescriptionAttribute is the flow attribute holding the document body.
const DescriptionAttribute = "description"

// toModel completes the frontmatter of a document into a validated model.
// A missing id falls back to the document id without its extension; the
// Markdown body becomes the description attribute.
func toModel(docID string, meta model.FlowModel, content string) (*model.FlowModel, error) {
	m := meta
	rawID := m.ID
	if rawID == "" {
		rawID = docID
	}
	m.ID = trimExtension(rawID)

	if body := strings.TrimSpace(content); body != "" {
		attrs := make(map[string]any, len(m.Attributes)+1)
		for k, v := range m.Attributes {
			attrs[k] = v
		}
		if _, ok := attrs[DescriptionAttribute]; !ok {
			attrs[DescriptionAttribute] = body
		}
		m.Attributes = attrs
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
