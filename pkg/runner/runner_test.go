package runner

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/registry"
	"github.com/webpilot-io/webpilot/pkg/scope"
	"github.com/webpilot-io/webpilot/pkg/steps/builtin"
)

// stubBrowser records navigations and serves canned text per selector.
type stubBrowser struct {
	navigated []string
	texts     map[string]string
	exists    map[string]bool
}

func (b *stubBrowser) Navigate(_ context.Context, url string) error {
	b.navigated = append(b.navigated, url)

	return nil
}

func (b *stubBrowser) Click(context.Context, string) error        { return nil }
func (b *stubBrowser) Type(context.Context, string, string) error { return nil }

func (b *stubBrowser) ExtractAttribute(context.Context, string, string) (string, error) {
	return "", nil
}

func (b *stubBrowser) ScrollTo(context.Context, string) error             { return nil }
func (b *stubBrowser) ScrollBy(context.Context, int) error                { return nil }
func (b *stubBrowser) SelectOption(context.Context, string, string) error { return nil }
func (b *stubBrowser) UploadFile(context.Context, string, string) error   { return nil }
func (b *stubBrowser) Hover(context.Context, string) error                { return nil }
func (b *stubBrowser) Screenshot(context.Context) ([]byte, error)         { return nil, nil }
func (b *stubBrowser) WaitForSelector(context.Context, string) error      { return nil }
func (b *stubBrowser) PressKey(context.Context, string, string) error     { return nil }
func (b *stubBrowser) Back(context.Context) error                         { return nil }
func (b *stubBrowser) Refresh(context.Context) error                      { return nil }

func (b *stubBrowser) ElementExists(_ context.Context, selector string) (bool, error) {
	return b.exists[selector], nil
}

func (b *stubBrowser) ExtractText(_ context.Context, selector string) (string, error) {
	return b.texts[selector], nil
}

// stubHTTP records every request and answers 200 OK.
type stubHTTP struct {
	requests []protocol.HTTPRequest
}

func (h *stubHTTP) Do(_ context.Context, req protocol.HTTPRequest) (*protocol.HTTPResponse, error) {
	h.requests = append(h.requests, req)

	return &protocol.HTTPResponse{StatusCode: 200, Body: `{"ok": true}`}, nil
}

func testRunner(t *testing.T) *Runner {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	reg := registry.NewRegistry(logger)
	builtin.Register(reg)

	return NewRunner(reg, logger)
}

func stepNode(id string, stepType models.StepType, config map[string]any) *models.Node {
	return &models.Node{
		ID:   id,
		Kind: models.NodeKindStep,
		Step: &models.Step{Type: stepType, Config: config},
	}
}

func TestRun_LinearGraph(t *testing.T) {
	browser := &stubBrowser{texts: map[string]string{"h1.title": "Daily Deals"}}
	http := &stubHTTP{}

	automation := &models.Automation{
		ID:   "linear",
		Name: "linear",
		Nodes: []*models.Node{
			stepNode("go", models.StepTypeNavigate, map[string]any{
				"url": "https://example.com",
			}),
			stepNode("grab", models.StepTypeExtractText, map[string]any{
				"selector":       "h1.title",
				"store_variable": "title",
			}),
			stepNode("report", models.StepTypeAPICall, map[string]any{
				"url": "https://api.example.com/report?title={{title}}",
			}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "go", Target: "grab"},
			{ID: "e2", Source: "grab", Target: "report"},
		},
	}

	sc := scope.New(nil)
	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      sc,
		Browser:    browser,
		HTTP:       http,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.StepsExecuted)
	assert.Equal(t, 3, result.StepsSucceeded)
	assert.Equal(t, []string{"https://example.com"}, browser.navigated)

	require.Len(t, result.NodeResults, 3)
	for _, nr := range result.NodeResults {
		assert.Equal(t, models.NodeStatusSuccess, nr.Status)
		assert.Empty(t, nr.Error)
		assert.False(t, nr.Timestamp.IsZero())
	}

	require.Len(t, http.requests, 1)
	assert.Equal(t, "https://api.example.com/report?title=Daily Deals", http.requests[0].URL)

	assert.Equal(t, "Daily Deals", result.FinalVariables["title"])
}

func TestRun_ConditionBranching(t *testing.T) {
	automation := &models.Automation{
		ID:   "branching",
		Name: "branching",
		Nodes: []*models.Node{
			stepNode("seed", models.StepTypeSetVariable, map[string]any{
				"name": "count", "value": "10",
			}),
			{
				ID:   "check",
				Kind: models.NodeKindCondition,
				Condition: &models.Condition{
					Kind: models.ConditionKindVariable,
					Variable: &models.VariableCondition{
						Variable:      "count",
						Check:         models.VariableCheckGreaterThan,
						Expected:      "5",
						ParseAsNumber: true,
					},
				},
			},
			stepNode("high", models.StepTypeSetVariable, map[string]any{
				"name": "outcome", "value": "high",
			}),
			stepNode("low", models.StepTypeSetVariable, map[string]any{
				"name": "outcome", "value": "low",
			}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "seed", Target: "check"},
			{ID: "e2", Source: "check", Target: "high", Branch: models.BranchIf},
			{ID: "e3", Source: "check", Target: "low", Branch: models.BranchElse},
		},
	}

	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.StepsExecuted)
	assert.Equal(t, "high", result.FinalVariables["outcome"])
}

func TestRun_CycleHitsIterationLimit(t *testing.T) {
	automation := &models.Automation{
		ID:   "cycle",
		Name: "cycle",
		Nodes: []*models.Node{
			stepNode("start", models.StepTypeSetVariable, map[string]any{
				"name": "n", "value": "0",
			}),
			stepNode("loop", models.StepTypeModifyVariable, map[string]any{
				"name": "n", "operation": "increment",
			}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "loop"},
			{ID: "e2", Source: "loop", Target: "loop"},
		},
	}

	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, ErrIterationLimit.Error(), result.Error)
	assert.Equal(t, MaxIterations, result.StepsExecuted)
}

func TestRun_NoStartNodes(t *testing.T) {
	automation := &models.Automation{
		ID:   "all-cycle",
		Name: "all-cycle",
		Nodes: []*models.Node{
			stepNode("a", models.StepTypeSetVariable, map[string]any{"name": "x", "value": "1"}),
			stepNode("b", models.StepTypeSetVariable, map[string]any{"name": "y", "value": "2"}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}

	_, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
	})
	assert.ErrorIs(t, err, ErrNoStartNodes)
}

func TestRun_DanglingEdgeDropped(t *testing.T) {
	automation := &models.Automation{
		ID:   "dangling",
		Name: "dangling",
		Nodes: []*models.Node{
			stepNode("only", models.StepTypeSetVariable, map[string]any{"name": "x", "value": "1"}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "only", Target: "ghost"},
		},
	}

	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.StepsExecuted)
}

func TestRun_NodeFailureEndsRun(t *testing.T) {
	var statuses []models.NodeStatus

	automation := &models.Automation{
		ID:   "failing",
		Name: "failing",
		Nodes: []*models.Node{
			stepNode("bad", models.StepTypeModifyVariable, map[string]any{
				"name": "x", "operation": "divide", "value": "0",
			}),
			stepNode("never", models.StepTypeSetVariable, map[string]any{
				"name": "reached", "value": "yes",
			}),
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "bad", Target: "never"},
		},
	}

	sc := scope.New(map[string]any{"x": float64(4)})
	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      sc,
		OnStatus: func(_ string, status models.NodeStatus, _ string) {
			statuses = append(statuses, status)
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "division by zero")
	assert.Equal(t, 1, result.StepsExecuted)
	assert.Equal(t, 0, result.StepsSucceeded)
	assert.NotContains(t, result.FinalVariables, "reached")
	assert.Equal(t, []models.NodeStatus{models.NodeStatusRunning, models.NodeStatusError}, statuses)

	require.Len(t, result.NodeResults, 1)
	assert.Equal(t, models.NodeStatusError, result.NodeResults[0].Status)
	assert.Contains(t, result.NodeResults[0].Error, "division by zero")
}

func TestRun_StopFlag(t *testing.T) {
	var stop atomic.Bool

	stop.Store(true)

	automation := &models.Automation{
		ID:   "stoppable",
		Name: "stoppable",
		Nodes: []*models.Node{
			stepNode("a", models.StepTypeSetVariable, map[string]any{"name": "x", "value": "1"}),
		},
	}

	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
		Stop:       &stop,
	})
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.StepsExecuted)
}

func TestRun_UnknownStepType(t *testing.T) {
	automation := &models.Automation{
		ID:   "unknown",
		Name: "unknown",
		Nodes: []*models.Node{
			stepNode("odd", models.StepType("teleport"), map[string]any{}),
		},
	}

	result, err := testRunner(t).Run(context.Background(), Options{
		Automation: automation,
		Scope:      scope.New(nil),
	})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not registered")
}
