package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/webpilot-io/webpilot/pkg/scope"
)

// ExecutionContext is the I/O surface handed to every step handler: the run's
// variable scope plus the injected capabilities. Headless and windowed modes
// share every field except which BrowserActions implementation is wired in.
type ExecutionContext struct {
	RunID        string
	AutomationID string
	Scope        *scope.Scope
	Browser      BrowserActions
	HTTP         HTTPClient
	Chat         ChatClient
	Microblog    MicroblogClient
	AI           AIClient
	Credentials  CredentialStore
	Logger       *slog.Logger
}

// StepHandler executes one configured step against the I/O surface. The
// returned value is the handler's storable result (already written to the
// scope when the step configured a store key); it is surfaced for logging.
type StepHandler interface {
	Execute(ctx context.Context, execCtx ExecutionContext) (any, error)
}

// StepFactory creates step handlers from a step's raw configuration and
// describes the configuration it accepts.
type StepFactory interface {
	// Create builds a handler instance for one node's configuration.
	Create(config map[string]any) (StepHandler, error)

	// ID returns the step type this factory serves.
	ID() string

	// Schema returns the JSON schema the configuration is validated against.
	Schema() map[string]any
}

// ErrCapabilityMissing is returned when a step requires a capability that is
// not available on the current surface. Such a failure is immediate and is
// never retried.
var ErrCapabilityMissing = errors.New("required capability not available")

// MissingCapability builds a descriptive capability-absence error.
func MissingCapability(name string) error {
	return fmt.Errorf("%w: %s", ErrCapabilityMissing, name)
}
