package conditions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/scope"
)

// stubPage serves canned text per selector.
type stubPage struct {
	texts  map[string]string
	exists map[string]bool
}

func (p *stubPage) ElementExists(_ context.Context, selector string) (bool, error) {
	return p.exists[selector], nil
}

func (p *stubPage) ExtractText(_ context.Context, selector string) (string, error) {
	return p.texts[selector], nil
}

func TestEvaluateDOM_ElementExists(t *testing.T) {
	page := &stubPage{exists: map[string]bool{"#banner": true}}
	sc := scope.New(nil)

	cond := &models.DOMCondition{Selector: "#banner", Check: models.DOMCheckElementExists}
	ok, err := EvaluateDOM(context.Background(), cond, page, sc)
	require.NoError(t, err)
	assert.True(t, ok)

	cond.Selector = "#absent"
	ok, err = EvaluateDOM(context.Background(), cond, page, sc)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateDOM_SelectorSubstitution(t *testing.T) {
	page := &stubPage{exists: map[string]bool{"#row-3": true}}
	sc := scope.New(map[string]any{"row": float64(3)})

	cond := &models.DOMCondition{Selector: "#row-{{row}}", Check: models.DOMCheckElementExists}
	ok, err := EvaluateDOM(context.Background(), cond, page, sc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateDOM_PriceComparison(t *testing.T) {
	page := &stubPage{texts: map[string]string{".price": "$1,234.56"}}
	sc := scope.New(nil)

	tests := []struct {
		name string
		cond models.DOMCondition
		want bool
	}{
		{
			name: "strip currency then numeric equals",
			cond: models.DOMCondition{
				Selector:      ".price",
				Check:         models.DOMCheckValueMatches,
				Operator:      models.OperatorEquals,
				Expected:      "1234.56",
				ParseAsNumber: true,
				Transform:     models.TransformStripCurrency,
			},
			want: true,
		},
		{
			name: "strip non numeric then less than",
			cond: models.DOMCondition{
				Selector:      ".price",
				Check:         models.DOMCheckValueMatches,
				Operator:      models.OperatorLessThan,
				Expected:      "2000",
				ParseAsNumber: true,
				Transform:     models.TransformStripNonNumeric,
			},
			want: true,
		},
		{
			name: "numeric mode without transform fails to parse",
			cond: models.DOMCondition{
				Selector:      ".price",
				Check:         models.DOMCheckValueMatches,
				Operator:      models.OperatorEquals,
				Expected:      "1234.56",
				ParseAsNumber: true,
			},
			want: false,
		},
		{
			name: "string equals on the raw value",
			cond: models.DOMCondition{
				Selector: ".price",
				Check:    models.DOMCheckValueMatches,
				Operator: models.OperatorEquals,
				Expected: "$1,234.56",
			},
			want: true,
		},
		{
			name: "contains stays substring even in numeric mode",
			cond: models.DOMCondition{
				Selector:      ".price",
				Check:         models.DOMCheckValueMatches,
				Operator:      models.OperatorContains,
				Expected:      "234",
				ParseAsNumber: true,
				Transform:     models.TransformStripCurrency,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateDOM(context.Background(), &tt.cond, page, sc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateDOM_MissingElementComparesEmpty(t *testing.T) {
	page := &stubPage{texts: map[string]string{}}
	sc := scope.New(nil)

	cond := &models.DOMCondition{
		Selector: ".gone",
		Check:    models.DOMCheckValueMatches,
		Operator: models.OperatorEquals,
		Expected: "",
	}

	ok, err := EvaluateDOM(context.Background(), cond, page, sc)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateDOM_NoPage(t *testing.T) {
	cond := &models.DOMCondition{Selector: "#x", Check: models.DOMCheckElementExists}

	_, err := EvaluateDOM(context.Background(), cond, nil, scope.New(nil))
	assert.Error(t, err)
}

func TestApplyTransform(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		cond models.DOMCondition
		want string
	}{
		{
			name: "currency symbols and separators",
			raw:  "€ 9.876,00",
			cond: models.DOMCondition{Transform: models.TransformStripCurrency},
			want: "9.87600",
		},
		{
			name: "non numeric keeps minus and dot",
			raw:  "abc-12.5xyz",
			cond: models.DOMCondition{Transform: models.TransformStripNonNumeric},
			want: "-12.5",
		},
		{
			name: "remove listed characters",
			raw:  "a-b_c",
			cond: models.DOMCondition{Transform: models.TransformRemoveChars, RemoveChars: "-_"},
			want: "abc",
		},
		{
			name: "regex replace",
			raw:  "order #42 shipped",
			cond: models.DOMCondition{
				Transform:      models.TransformRegexReplace,
				ReplacePattern: `[^0-9]`,
				ReplaceWith:    "",
			},
			want: "42",
		},
		{
			name: "none passes through",
			raw:  "as is",
			cond: models.DOMCondition{Transform: models.TransformNone},
			want: "as is",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyTransform(tt.raw, &tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyTransform_BadPattern(t *testing.T) {
	cond := &models.DOMCondition{
		Transform:      models.TransformRegexReplace,
		ReplacePattern: "[",
	}

	_, err := applyTransform("x", cond)
	assert.Error(t, err)
}

func TestEvaluateVariable(t *testing.T) {
	sc := scope.New(map[string]any{
		"count":  float64(10),
		"status": "payment overdue",
		"empty":  "",
	})

	tests := []struct {
		name string
		cond models.VariableCondition
		want bool
	}{
		{
			name: "exists",
			cond: models.VariableCondition{Variable: "count", Check: models.VariableCheckExists},
			want: true,
		},
		{
			name: "empty string counts as absent",
			cond: models.VariableCondition{Variable: "empty", Check: models.VariableCheckExists},
			want: false,
		},
		{
			name: "numeric greater than",
			cond: models.VariableCondition{
				Variable: "count", Check: models.VariableCheckGreaterThan,
				Expected: "5", ParseAsNumber: true,
			},
			want: true,
		},
		{
			name: "lexical greater than differs from numeric",
			cond: models.VariableCondition{
				Variable: "count", Check: models.VariableCheckGreaterThan,
				Expected: "5",
			},
			want: false,
		},
		{
			name: "contains substring",
			cond: models.VariableCondition{
				Variable: "status", Check: models.VariableCheckContains,
				Expected: "overdue",
			},
			want: true,
		},
		{
			name: "equals on stringified number",
			cond: models.VariableCondition{
				Variable: "count", Check: models.VariableCheckEquals,
				Expected: "10",
			},
			want: true,
		},
		{
			name: "missing variable compares empty",
			cond: models.VariableCondition{
				Variable: "absent", Check: models.VariableCheckEquals,
				Expected: "anything",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateVariable(&tt.cond, sc))
		})
	}
}

func TestEvaluateVariable_ExpectedInterpolation(t *testing.T) {
	sc := scope.New(map[string]any{"actual": "blue", "wanted": "blue"})

	cond := &models.VariableCondition{
		Variable: "actual",
		Check:    models.VariableCheckEquals,
		Expected: "{{wanted}}",
	}

	assert.True(t, EvaluateVariable(cond, sc))
}

func TestEvaluateExpression(t *testing.T) {
	sc := scope.New(map[string]any{"price": float64(150), "name": "deal"})

	ok, err := EvaluateExpression("price > 100 && name == 'deal'", sc)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = EvaluateExpression("price < 100", sc)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = EvaluateExpression("price >", sc)
	assert.Error(t, err)
}

func TestEvaluate_UnknownKind(t *testing.T) {
	cond := &models.Condition{Kind: "telepathy"}

	_, err := Evaluate(context.Background(), cond, nil, scope.New(nil))
	assert.Error(t, err)
}
