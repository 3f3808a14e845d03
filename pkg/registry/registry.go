// Package registry maps step types to their handler factories. Dispatch over
// the registry is how headless and windowed execution share one traversal:
// the registry is mode-agnostic, the injected capabilities are not.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.StepType]protocol.StepFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.StepType]protocol.StepFactory),
	}
}

// Register adds a step factory under its own ID.
func (r *Registry) Register(factory protocol.StepFactory) {
	r.factories[models.StepType(factory.ID())] = factory
}

// StepTypes returns every registered step type.
func (r *Registry) StepTypes() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, string(t))
	}

	return types
}

// Create validates a step's configuration against the factory's schema and
// builds the handler. An unregistered step type is a configuration error.
func (r *Registry) Create(stepType models.StepType, config map[string]any) (protocol.StepHandler, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("step type %q not registered", stepType)
	}

	if schema := factory.Schema(); schema != nil {
		if err := validateConfig(schema, config); err != nil {
			return nil, fmt.Errorf("step %q configuration invalid: %w", stepType, err)
		}
	}

	return factory.Create(config)
}

func validateConfig(schema, config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("%s", strings.Join(details, "; "))
}
