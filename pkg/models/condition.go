package models

import (
	"errors"
	"fmt"
)

// ConditionKind discriminates what a branch condition inspects.
type ConditionKind string

const (
	ConditionKindDOM        ConditionKind = "dom"        // Inspects the controlled page
	ConditionKindVariable   ConditionKind = "variable"   // Inspects the run's variable scope
	ConditionKindExpression ConditionKind = "expression" // Free-form expression over the scope
)

// DOMCheck selects the DOM predicate.
type DOMCheck string

const (
	DOMCheckElementExists DOMCheck = "elementExists"
	DOMCheckValueMatches  DOMCheck = "valueMatches"
)

// VariableCheck selects the variable predicate.
type VariableCheck string

const (
	VariableCheckExists      VariableCheck = "variableExists"
	VariableCheckEquals      VariableCheck = "variableEquals"
	VariableCheckGreaterThan VariableCheck = "variableGreaterThan"
	VariableCheckLessThan    VariableCheck = "variableLessThan"
	VariableCheckContains    VariableCheck = "variableContains"
)

// CompareOperator is the comparison applied to an extracted DOM value.
type CompareOperator string

const (
	OperatorEquals      CompareOperator = "equals"
	OperatorContains    CompareOperator = "contains"
	OperatorGreaterThan CompareOperator = "greaterThan"
	OperatorLessThan    CompareOperator = "lessThan"
)

// TransformType selects the single value transform applied before comparison.
type TransformType string

const (
	TransformNone            TransformType = "none"
	TransformStripCurrency   TransformType = "stripCurrency"
	TransformStripNonNumeric TransformType = "stripNonNumeric"
	TransformRemoveChars     TransformType = "removeChars"
	TransformRegexReplace    TransformType = "regexReplace"
)

// DOMCondition checks the controlled page: element existence or an extracted
// value compared against an expectation after an optional transform.
type DOMCondition struct {
	Selector       string          `json:"selector"                  validate:"required"`
	Check          DOMCheck        `json:"check"                     validate:"required,oneof=elementExists valueMatches"`
	Operator       CompareOperator `json:"operator,omitempty"`
	Expected       string          `json:"expected,omitempty"`
	ParseAsNumber  bool            `json:"parse_as_number,omitempty"`
	Transform      TransformType   `json:"transform,omitempty"`
	RemoveChars    string          `json:"remove_chars,omitempty"`
	ReplacePattern string          `json:"replace_pattern,omitempty"`
	ReplaceWith    string          `json:"replace_with,omitempty"`
}

// VariableCondition checks a value in the run's variable scope.
type VariableCondition struct {
	Variable      string        `json:"variable"                  validate:"required"`
	Check         VariableCheck `json:"check"                     validate:"required"`
	Expected      string        `json:"expected,omitempty"`
	ParseAsNumber bool          `json:"parse_as_number,omitempty"`
}

// Condition is the tagged branch predicate carried by a condition node.
type Condition struct {
	Kind       ConditionKind      `json:"kind"                 validate:"required,oneof=dom variable expression"`
	DOM        *DOMCondition      `json:"dom,omitempty"`
	Variable   *VariableCondition `json:"variable,omitempty"`
	Expression string             `json:"expression,omitempty"`
}

// Validate checks that the condition payload matches its kind.
func (c *Condition) Validate() error {
	switch c.Kind {
	case ConditionKindDOM:
		if c.DOM == nil {
			return ErrConditionMissingDOM
		}
	case ConditionKindVariable:
		if c.Variable == nil {
			return ErrConditionMissingVariable
		}
	case ConditionKindExpression:
		if c.Expression == "" {
			return ErrConditionMissingExpression
		}
	default:
		return fmt.Errorf("unknown condition kind %q: %w", c.Kind, ErrConditionKindInvalid)
	}

	return nil
}

var (
	// ErrConditionMissingDOM is returned when a dom condition carries no dom spec.
	ErrConditionMissingDOM = errors.New("dom condition has no dom spec")
	// ErrConditionMissingVariable is returned when a variable condition carries no variable spec.
	ErrConditionMissingVariable = errors.New("variable condition has no variable spec")
	// ErrConditionMissingExpression is returned when an expression condition has an empty expression.
	ErrConditionMissingExpression = errors.New("expression condition has no expression")
	// ErrConditionKindInvalid is returned for an unrecognized condition kind.
	ErrConditionKindInvalid = errors.New("invalid condition kind")
)
