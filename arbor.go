package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/attr"
	"github.com/aretw0/arbor/pkg/builder"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/executor"
	"github.com/aretw0/arbor/pkg/model"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// TemplateAttribute is the state attribute holding an inline view template.
// End states only render when they declare a view.
const TemplateAttribute = "template"

// App is the high-level entry point of the library. It wires a source of
// flow models to the builder, the flow registry and an executor.
type App struct {
	Name     string
	Models   *model.ModelRegistry
	Flows    *registry.FlowRegistry
	Executor *executor.Executor
	Views    *builder.TemplateViews

	loader      ports.ModelLoader
	store       ports.ExecutionStore
	logger      *slog.Logger
	serviceOpts []builder.Option
	execOpts    []executor.Option
}

var _ ports.FlowExecutor = (*App)(nil)

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLoader injects a custom ModelLoader, bypassing the default Loam initialization.
func WithLoader(l ports.ModelLoader) Option {
	return func(a *App) {
		a.loader = l
	}
}

// WithStore sets where executions are persisted. Defaults to memory.
func WithStore(s ports.ExecutionStore) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithListeners registers execution listeners.
func WithListeners(l ...domain.Listener) Option {
	return func(a *App) {
		a.execOpts = append(a.execOpts, executor.WithListeners(l...))
	}
}

// WithAction registers a named action callable from flow models.
func WithAction(name string, action domain.Action) Option {
	return func(a *App) {
		a.serviceOpts = append(a.serviceOpts, builder.WithAction(name, action))
	}
}

// WithDevelopment rebuilds flows whose model documents changed.
func WithDevelopment(enabled bool) Option {
	return func(a *App) {
		a.serviceOpts = append(a.serviceOpts, builder.WithDevelopment(enabled))
	}
}

// WithExecutorOptions passes options through to the executor.
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(a *App) {
		a.execOpts = append(a.execOpts, opts...)
	}
}

// New loads every flow model under dir and prepares them for execution.
// If WithLoader is provided, dir only names the app and Loam is skipped.
func New(dir string, opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.store == nil {
		a.store = memory.NewStore()
	}

	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		a.Name = filepath.Base(abs)
		if a.loader == nil {
			l, err := loam.Open(abs)
			if err != nil {
				return nil, err
			}
			a.loader = l
		}
	}
	if a.loader == nil {
		return nil, fmt.Errorf("a directory is required when no custom loader is provided")
	}
	if a.Name != "" {
		a.logger = a.logger.With("app", a.Name)
	}

	ctx := context.Background()
	a.Models = model.NewModelRegistry()
	if err := ports.RegisterModels(ctx, a.loader, a.Models); err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	a.Views = builder.NewTemplateViews()
	if err := a.registerViews(); err != nil {
		return nil, err
	}
	services := builder.NewServices(append([]builder.Option{
		builder.WithViewFactory(a.Views),
		builder.WithLogger(a.logger),
	}, a.serviceOpts...)...)

	a.Flows = registry.NewFlowRegistry()
	builder.RegisterAll(a.Flows, a.Models, builder.New(services))

	a.Executor = executor.New(a.Flows, a.store, append([]executor.Option{executor.WithLogger(a.logger)}, a.execOpts...)...)
	return a, nil
}

// registerViews adds the inline templates declared by state attributes.
// Views are shared across flows, so the last flow declaring a name wins.
func (a *App) registerViews() error {
	for _, id := range a.Models.IDs() {
		m, err := a.Models.Resolve(id)
		if err != nil {
			return err
		}
		for _, st := range m.States {
			src, ok := st.Attributes[TemplateAttribute].(string)
			if !ok {
				continue
			}
			name := st.View
			if name == "" {
				name = st.ID
			}
			if err := a.Views.Add(name, src); err != nil {
				return fmt.Errorf("flow '%s': %w", id, err)
			}
		}
	}
	return nil
}

// Launch starts a new execution of flowID.
func (a *App) Launch(ctx context.Context, flowID string, input *attr.Map) (*ports.Response, error) {
	return a.Executor.Launch(ctx, flowID, input)
}

// Resume signals eventID to the paused execution key.
func (a *App) Resume(ctx context.Context, key, eventID string, params *attr.Map) (*ports.Response, error) {
	return a.Executor.Resume(ctx, key, eventID, params)
}

// Inspect returns the stored execution without resuming it.
func (a *App) Inspect(ctx context.Context, key string) (*domain.Execution, error) {
	return a.Executor.Inspect(ctx, key)
}

// List returns the keys of the stored executions.
func (a *App) List(ctx context.Context) ([]string, error) {
	return a.Executor.List(ctx)
}

// FlowIDs returns the ids of every loaded flow.
func (a *App) FlowIDs() []string {
	return a.Flows.IDs()
}

// Model returns the model of flowID, with its parent merged in.
func (a *App) Model(flowID string) (*model.FlowModel, error) {
	return a.Models.Resolve(flowID)
}

// Validate builds every flow and returns the failures joined.
func (a *App) Validate() error {
	var errs []error
	for _, id := range a.Flows.IDs() {
		if _, err := a.Flows.Lookup(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
