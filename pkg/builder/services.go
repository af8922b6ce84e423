package builder

import (
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/convert"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/expression"
	"github.com/aretw0/arbor/pkg/registry"
)

// Services are the collaborators shared by every flow the builder produces.
type Services struct {
	Parser     expression.Parser
	Conversion convert.Service
	// Actions resolves the "call" actions of flow models by name.
	Actions *registry.Registry[domain.Action]
	Views   ViewFactory
	// Development makes built flows follow changes to their model sources.
	Development bool
	Logger      *slog.Logger
}

// Option configures Services.
type Option func(*Services)

// WithParser sets the expression parser.
func WithParser(p expression.Parser) Option {
	return func(s *Services) {
		s.Parser = p
	}
}

// WithConversionService sets the conversion service used by mappings.
func WithConversionService(c convert.Service) Option {
	return func(s *Services) {
		s.Conversion = c
	}
}

// WithAction registers a named action callable from flow models.
func WithAction(name string, a domain.Action) Option {
	return func(s *Services) {
		s.Actions.RegisterValue(name, a)
	}
}

// WithViewFactory sets how view names become views.
func WithViewFactory(v ViewFactory) Option {
	return func(s *Services) {
		s.Views = v
	}
}

// WithDevelopment enables rebuilding flows when their models change.
func WithDevelopment(enabled bool) Option {
	return func(s *Services) {
		s.Development = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Services) {
		s.Logger = l
	}
}

// NewServices returns services with the default parser, conversion service
// and view factory.
func NewServices(opts ...Option) *Services {
	s := &Services{
		Parser:     expression.NewParser(),
		Conversion: convert.NewDefaultService(),
		Actions:    registry.New[domain.Action]("action"),
		Views:      NewTemplateViews(),
		Logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
