// Package runner walks an automation graph from its start nodes, dispatching
// step nodes through the registry and condition nodes through the evaluator,
// and following the edge selected by each outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/webpilot-io/webpilot/pkg/conditions"
	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
	"github.com/webpilot-io/webpilot/pkg/registry"
	"github.com/webpilot-io/webpilot/pkg/scope"
)

// MaxIterations caps total node visits per run. Graphs may contain cycles
// (retry and poll patterns depend on that), so this cap is the only
// termination guarantee.
const MaxIterations = 10000

var (
	// ErrNoStartNodes is returned for a graph with no node of in-degree zero.
	ErrNoStartNodes = errors.New("graph has no start nodes")
	// ErrIterationLimit is returned when a run exceeds MaxIterations visits.
	ErrIterationLimit = errors.New("maximum iteration limit reached")
)

// StatusCallback observes per-node progress without being coupled to the
// traversal. Message is empty except for error statuses.
type StatusCallback func(nodeID string, status models.NodeStatus, message string)

// Options configures one run. The injected Browser decides headless versus
// windowed; nothing else differs between the modes.
type Options struct {
	Automation  *models.Automation
	Scope       *scope.Scope
	Browser     protocol.BrowserActions
	HTTP        protocol.HTTPClient
	Chat        protocol.ChatClient
	Microblog   protocol.MicroblogClient
	AI          protocol.AIClient
	Credentials protocol.CredentialStore
	OnStatus    StatusCallback
	Stop        *atomic.Bool
}

// Result is the run-level outcome handed to the execution log. NodeResults
// records the terminal outcome of every visited node in visit order.
type Result struct {
	RunID          string
	Success        bool
	Stopped        bool
	Error          string
	StepsExecuted  int
	StepsSucceeded int
	Duration       time.Duration
	FinalVariables map[string]any
	NodeResults    []models.NodeResult
}

type Runner struct {
	registry *registry.Registry
	logger   *slog.Logger
}

func NewRunner(reg *registry.Registry, logger *slog.Logger) *Runner {
	return &Runner{registry: reg, logger: logger}
}

// Run executes the graph to completion or failure. A configuration error
// (no start nodes) is returned as an error; node-level failures are reported
// through the Result with Success=false.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	runID := "run-" + uuid.New().String()[:8]
	logger := r.logger.With("run_id", runID, "automation_id", opts.Automation.ID)

	nodes := make(map[string]*models.Node, len(opts.Automation.Nodes))
	for _, n := range opts.Automation.Nodes {
		nodes[n.ID] = n
	}

	// Edges referencing unknown nodes are dropped with a warning, not fatal.
	edges := make([]*models.Edge, 0, len(opts.Automation.Edges))

	for _, e := range opts.Automation.Edges {
		if nodes[e.Source] == nil || nodes[e.Target] == nil {
			logger.Warn("dropping edge with unknown endpoint",
				"edge_id", e.ID, "source", e.Source, "target", e.Target)

			continue
		}

		edges = append(edges, e)
	}

	starts := startNodes(opts.Automation.Nodes, edges)
	if len(starts) == 0 {
		return nil, fmt.Errorf("automation %s: %w", opts.Automation.ID, ErrNoStartNodes)
	}

	execCtx := protocol.ExecutionContext{
		RunID:        runID,
		AutomationID: opts.Automation.ID,
		Scope:        opts.Scope,
		Browser:      opts.Browser,
		HTTP:         opts.HTTP,
		Chat:         opts.Chat,
		Microblog:    opts.Microblog,
		AI:           opts.AI,
		Credentials:  opts.Credentials,
		Logger:       logger,
	}

	result := &Result{RunID: runID, Success: true}
	started := time.Now()

	logger.Info("starting run", "start_nodes", len(starts))

	// Depth-first traversal with an explicit work stack so depth is bounded
	// independent of the call stack.
	stack := make([]string, 0, len(starts))
	for i := len(starts) - 1; i >= 0; i-- {
		stack = append(stack, starts[i])
	}

	for len(stack) > 0 {
		if opts.Stop != nil && opts.Stop.Load() {
			logger.Info("run stopped cooperatively")

			result.Stopped = true

			break
		}

		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Error = err.Error()

			break
		}

		if result.StepsExecuted >= MaxIterations {
			result.Success = false
			result.Error = ErrIterationLimit.Error()

			logger.Error("aborting run", "error", ErrIterationLimit, "visits", result.StepsExecuted)

			break
		}

		nodeID := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := nodes[nodeID]

		result.StepsExecuted++
		r.report(opts.OnStatus, nodeID, models.NodeStatusRunning, "")

		next, err := r.executeNode(ctx, node, execCtx, edges)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			result.NodeResults = append(result.NodeResults, nodeResult(nodeID, models.NodeStatusError, err.Error()))

			r.report(opts.OnStatus, nodeID, models.NodeStatusError, err.Error())
			logger.Error("node failed", "node_id", nodeID, "error", err)

			break
		}

		result.StepsSucceeded++
		result.NodeResults = append(result.NodeResults, nodeResult(nodeID, models.NodeStatusSuccess, ""))
		r.report(opts.OnStatus, nodeID, models.NodeStatusSuccess, "")

		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}

	result.Duration = time.Since(started)
	result.FinalVariables = opts.Scope.Snapshot()

	logger.Info("run finished",
		"success", result.Success,
		"steps_executed", result.StepsExecuted,
		"steps_succeeded", result.StepsSucceeded,
		"duration", result.Duration)

	return result, nil
}

// executeNode runs one node and returns the ids of the nodes reachable via
// the selected outgoing edges.
func (r *Runner) executeNode(ctx context.Context, node *models.Node, execCtx protocol.ExecutionContext, edges []*models.Edge) ([]string, error) {
	switch {
	case node.IsConditionNode():
		outcome, err := conditions.Evaluate(ctx, node.Condition, execCtx.Browser, execCtx.Scope)
		if err != nil {
			return nil, fmt.Errorf("condition node %s: %w", node.ID, err)
		}

		label := models.BranchElse
		if outcome {
			label = models.BranchIf
		}

		return targets(edges, node.ID, label), nil
	case node.IsStepNode():
		handler, err := r.registry.Create(node.Step.Type, node.Step.Config)
		if err != nil {
			return nil, fmt.Errorf("step node %s: %w", node.ID, err)
		}

		if _, err := handler.Execute(ctx, execCtx); err != nil {
			return nil, fmt.Errorf("step node %s (%s): %w", node.ID, node.Step.Type, err)
		}

		return targets(edges, node.ID, models.BranchNone), nil
	default:
		return nil, fmt.Errorf("node %s: %w", node.ID, models.ErrNodeKindInvalid)
	}
}

func nodeResult(nodeID string, status models.NodeStatus, message string) models.NodeResult {
	return models.NodeResult{
		NodeID:    nodeID,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Error:     message,
	}
}

func (r *Runner) report(cb StatusCallback, nodeID string, status models.NodeStatus, message string) {
	if cb != nil {
		cb(nodeID, status, message)
	}
}

// startNodes returns ids with in-degree zero, in node-list order.
func startNodes(nodes []*models.Node, edges []*models.Edge) []string {
	inDegree := make(map[string]int, len(nodes))
	for _, e := range edges {
		inDegree[e.Target]++
	}

	starts := make([]string, 0, len(nodes))

	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			starts = append(starts, n.ID)
		}
	}

	return starts
}

// targets returns the targets of the node's outgoing edges carrying the label.
func targets(edges []*models.Edge, source string, label models.BranchLabel) []string {
	var out []string

	for _, e := range edges {
		if e.Source == source && e.Branch == label {
			out = append(out, e.Target)
		}
	}

	return out
}
