package builder

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/aretw0/arbor/pkg/domain"
)

// ViewFactory creates the view a state renders. name is the view declared
// by the model, or the state id when none is declared.
type ViewFactory interface {
	View(stateID, name string) (domain.View, error)
}

// TemplateViews renders views from text/template sources registered by
// name. The template data is the expression environment of the request, so
// scope attributes are reachable as {{.name}} or {{.flowScope.Get "name"}},
// and request messages as {{range .messages.Messages}}{{.Text}}{{end}}. A
// name without a registered template renders no content; the host decides
// what to display from Rendering.View and Rendering.Model.
type TemplateViews struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewTemplateViews creates an empty factory.
func NewTemplateViews() *TemplateViews {
	return &TemplateViews{templates: make(map[string]*template.Template)}
}

// Add parses src as the template of the view name.
func (v *TemplateViews) Add(name, src string) error {
	t, err := template.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return fmt.Errorf("view '%s': %w", name, err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.templates[name] = t
	return nil
}

// View implements ViewFactory. The template is looked up at render time so
// views added later are picked up.
func (v *TemplateViews) View(stateID, name string) (domain.View, error) {
	return domain.ViewFunc(func(rc domain.RequestContext) (*domain.Rendering, error) {
		env := rc.Env()
		r := &domain.Rendering{View: name, Model: env}
		v.mu.RLock()
		t, ok := v.templates[name]
		v.mu.RUnlock()
		if !ok {
			return r, nil
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, env); err != nil {
			return nil, fmt.Errorf("view '%s': %w", name, err)
		}
		r.Content = buf.String()
		return r, nil
	}), nil
}
