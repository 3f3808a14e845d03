// Package vars implements the variable-manipulation step handlers.
package vars

import (
	"context"
	"fmt"
	"strconv"

	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/steps"
)

// Factories returns the factory for every variable step type.
func Factories() []protocol.StepFactory {
	return []protocol.StepFactory{
		steps.NewFactory("setVariable",
			steps.ObjectSchema([]string{"name"}, map[string]any{
				"name":  steps.StringProp(),
				"value": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newSetVariable(config) }),
		steps.NewFactory("modifyVariable",
			steps.ObjectSchema([]string{"name", "operation"}, map[string]any{
				"name":      steps.StringProp(),
				"operation": steps.StringProp(),
				"value":     steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newModifyVariable(config) }),
		steps.NewFactory("deleteVariable",
			steps.ObjectSchema([]string{"name"}, map[string]any{
				"name": steps.StringProp(),
			}),
			func(config map[string]any) (protocol.StepHandler, error) { return newDeleteVariable(config) }),
	}
}

type setVariable struct {
	name  string
	value string
}

func newSetVariable(config map[string]any) (*setVariable, error) {
	name, err := steps.Require(config, "name")
	if err != nil {
		return nil, err
	}

	return &setVariable{name: name, value: steps.String(config, "value")}, nil
}

func (h *setVariable) Execute(_ context.Context, execCtx protocol.ExecutionContext) (any, error) {
	resolved := execCtx.Scope.Substitute(h.value)
	execCtx.Scope.Set(h.name, resolved)

	return execCtx.Scope.Get(h.name), nil
}

type modifyVariable struct {
	name      string
	operation string
	value     string
}

func newModifyVariable(config map[string]any) (*modifyVariable, error) {
	name, err := steps.Require(config, "name")
	if err != nil {
		return nil, err
	}

	operation, err := steps.Require(config, "operation")
	if err != nil {
		return nil, err
	}

	switch operation {
	case "increment", "decrement", "multiply", "divide", "append", "prepend", "set":
	default:
		return nil, fmt.Errorf("unknown modify operation %q", operation)
	}

	return &modifyVariable{name: name, operation: operation, value: steps.String(config, "value")}, nil
}

// Execute mutates the variable in place. Numeric operations work on values
// that arrived as strings from a page extraction because the scope auto-types
// on write and this handler coerces on read.
func (h *modifyVariable) Execute(_ context.Context, execCtx protocol.ExecutionContext) (any, error) {
	operand := execCtx.Scope.Substitute(h.value)

	switch h.operation {
	case "set":
		execCtx.Scope.Set(h.name, operand)
	case "append":
		execCtx.Scope.SetValue(h.name, execCtx.Scope.GetString(h.name)+operand)
	case "prepend":
		execCtx.Scope.SetValue(h.name, operand+execCtx.Scope.GetString(h.name))
	default:
		current, err := toNumber(execCtx.Scope.GetString(h.name))
		if err != nil {
			return nil, fmt.Errorf("variable %q is not numeric: %w", h.name, err)
		}

		amount := 1.0

		if operand != "" {
			amount, err = toNumber(operand)
			if err != nil {
				return nil, fmt.Errorf("operand %q is not numeric: %w", operand, err)
			}
		}

		switch h.operation {
		case "increment":
			current += amount
		case "decrement":
			current -= amount
		case "multiply":
			current *= amount
		case "divide":
			if amount == 0 {
				return nil, fmt.Errorf("division by zero modifying %q", h.name)
			}

			current /= amount
		}

		execCtx.Scope.SetValue(h.name, current)
	}

	return execCtx.Scope.Get(h.name), nil
}

func toNumber(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}

	return strconv.ParseFloat(raw, 64)
}

type deleteVariable struct {
	name string
}

func newDeleteVariable(config map[string]any) (*deleteVariable, error) {
	name, err := steps.Require(config, "name")
	if err != nil {
		return nil, err
	}

	return &deleteVariable{name: name}, nil
}

func (h *deleteVariable) Execute(_ context.Context, execCtx protocol.ExecutionContext) (any, error) {
	execCtx.Scope.Delete(h.name)

	return nil, nil
}
