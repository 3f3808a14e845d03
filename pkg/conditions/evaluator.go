// Package conditions evaluates branch predicates against the controlled page's
// DOM or the run's variable scope. Results are plain booleans; edge selection
// belongs to the runner, never to the evaluator.
package conditions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/scope"
)

// Evaluate dispatches on the condition kind.
func Evaluate(ctx context.Context, cond *models.Condition, page protocol.PageQuerier, sc *scope.Scope) (bool, error) {
	switch cond.Kind {
	case models.ConditionKindDOM:
		return EvaluateDOM(ctx, cond.DOM, page, sc)
	case models.ConditionKindVariable:
		return EvaluateVariable(cond.Variable, sc), nil
	case models.ConditionKindExpression:
		return EvaluateExpression(cond.Expression, sc)
	default:
		return false, fmt.Errorf("unknown condition kind %q", cond.Kind)
	}
}

// EvaluateDOM resolves the selector through the scope, queries the page and
// applies the configured check. A selector that matches nothing is a soft
// miss: elementExists is false and valueMatches compares against "".
func EvaluateDOM(ctx context.Context, cond *models.DOMCondition, page protocol.PageQuerier, sc *scope.Scope) (bool, error) {
	if page == nil {
		return false, protocol.MissingCapability("browser page query")
	}

	selector := sc.Substitute(cond.Selector)

	if cond.Check == models.DOMCheckElementExists {
		return page.ElementExists(ctx, selector)
	}

	raw, err := page.ExtractText(ctx, selector)
	if err != nil {
		return false, fmt.Errorf("extract %q: %w", selector, err)
	}

	transformed, err := applyTransform(raw, cond)
	if err != nil {
		return false, err
	}

	expected := sc.Substitute(cond.Expected)

	return compare(cond.Operator, transformed, expected, cond.ParseAsNumber), nil
}

// EvaluateVariable applies the configured check to a scope lookup. Lookups
// never fail; an absent path behaves as an empty value.
func EvaluateVariable(cond *models.VariableCondition, sc *scope.Scope) bool {
	if cond.Check == models.VariableCheckExists {
		return sc.Has(cond.Variable)
	}

	actual := sc.GetString(cond.Variable)
	expected := sc.Substitute(cond.Expected)

	switch cond.Check {
	case models.VariableCheckEquals:
		return compare(models.OperatorEquals, actual, expected, cond.ParseAsNumber)
	case models.VariableCheckGreaterThan:
		return compare(models.OperatorGreaterThan, actual, expected, cond.ParseAsNumber)
	case models.VariableCheckLessThan:
		return compare(models.OperatorLessThan, actual, expected, cond.ParseAsNumber)
	case models.VariableCheckContains:
		return compare(models.OperatorContains, actual, expected, cond.ParseAsNumber)
	default:
		return false
	}
}

// EvaluateExpression compiles and runs a free-form expression against a
// snapshot of the scope, then coerces the result to a boolean.
func EvaluateExpression(expression string, sc *scope.Scope) (bool, error) {
	result, err := expr.Eval(expression, sc.Snapshot())
	if err != nil {
		return false, fmt.Errorf("expression %q: %w", expression, err)
	}

	return truthy(result), nil
}

// compare applies one operator. In numeric mode both sides must parse as
// floats or the condition is false; contains stays a substring test on the
// transformed string even in numeric mode. This asymmetry is intentional and
// matches how graphs in the field depend on it.
func compare(op models.CompareOperator, actual, expected string, numeric bool) bool {
	if op == models.OperatorContains {
		return strings.Contains(actual, expected)
	}

	if numeric {
		a, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)

		e, errE := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if errA != nil || errE != nil {
			return false
		}

		switch op {
		case models.OperatorEquals:
			return a == e
		case models.OperatorGreaterThan:
			return a > e
		case models.OperatorLessThan:
			return a < e
		default:
			return false
		}
	}

	switch op {
	case models.OperatorEquals:
		return actual == expected
	case models.OperatorGreaterThan:
		return actual > expected
	case models.OperatorLessThan:
		return actual < expected
	default:
		return false
	}
}

// truthy converts an expression result to a boolean.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
