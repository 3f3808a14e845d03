// Package steps provides shared plumbing for the built-in step handlers:
// factory construction, config field access and JSON schema helpers.
package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
)

type factory struct {
	id     string
	schema map[string]any
	create func(config map[string]any) (protocol.StepHandler, error)
}

// NewFactory wraps a constructor function as a StepFactory.
func NewFactory(id string, schema map[string]any, create func(config map[string]any) (protocol.StepHandler, error)) protocol.StepFactory {
	return &factory{id: id, schema: schema, create: create}
}

func (f *factory) ID() string { return f.id }

func (f *factory) Schema() map[string]any { return f.schema }

func (f *factory) Create(config map[string]any) (protocol.StepHandler, error) {
	if config == nil {
		config = map[string]any{}
	}

	return f.create(config)
}

// ObjectSchema builds a JSON schema for an object config with the given
// required keys and property schemas.
func ObjectSchema(required []string, properties map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// StringProp is the schema for a free-text (templatable) field.
func StringProp() map[string]any { return map[string]any{"type": "string"} }

// NumberProp is the schema for a numeric field.
func NumberProp() map[string]any { return map[string]any{"type": "number"} }

// BoolProp is the schema for a boolean field.
func BoolProp() map[string]any { return map[string]any{"type": "boolean"} }

// String reads an optional string config field.
func String(config map[string]any, key string) string {
	v, _ := config[key].(string)

	return v
}

// Require reads a mandatory string config field.
func Require(config map[string]any, key string) (string, error) {
	v, ok := config[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required field %q", key)
	}

	return v, nil
}

// Int reads a numeric config field, tolerating the float64 that JSON
// unmarshalling produces.
func Int(config map[string]any, key string, fallback int) int {
	switch v := config[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

// Float reads a float config field.
func Float(config map[string]any, key string, fallback float64) float64 {
	switch v := config[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

// Bool reads a boolean config field.
func Bool(config map[string]any, key string) bool {
	v, _ := config[key].(bool)

	return v
}

// StoreKey reads the optional variable name a handler's result is stored
// under. An empty key means the result is not stored.
func StoreKey(config map[string]any) string {
	return String(config, "store_variable")
}

// ErrCredentialNotFound is returned when a referenced credential id resolves
// to nothing. The step fails before any outbound call is attempted.
var ErrCredentialNotFound = errors.New("credential not found")

// ResolveCredential looks up the credential referenced by the step's
// credential_id field. Steps using inline secrets pass no credential_id and
// get (nil, nil) back.
func ResolveCredential(ctx context.Context, execCtx protocol.ExecutionContext, config map[string]any) (*models.Credential, error) {
	id := String(config, "credential_id")
	if id == "" {
		return nil, nil
	}

	if execCtx.Credentials == nil {
		return nil, protocol.MissingCapability("credential store")
	}

	cred, err := execCtx.Credentials.GetCredential(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve credential %q: %w", id, err)
	}

	if cred == nil {
		return nil, fmt.Errorf("credential %q: %w", id, ErrCredentialNotFound)
	}

	return cred, nil
}
