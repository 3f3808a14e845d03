package models

import (
	"errors"
	"fmt"
	"time"
)

// BranchLabel labels an outgoing edge of a condition node.
type BranchLabel string

const (
	BranchNone BranchLabel = ""
	BranchIf   BranchLabel = "if"
	BranchElse BranchLabel = "else"
)

// Edge is a directed link between two nodes, optionally labelled to select a branch.
type Edge struct {
	ID     string      `json:"id"     validate:"required"`
	Source string      `json:"source" validate:"required"`
	Target string      `json:"target" validate:"required"`
	Branch BranchLabel `json:"branch,omitempty"`
}

// Automation is one stored graph plus its schedule and execution flags.
// Persisted as a single JSON document, overwritten wholesale on save.
type Automation struct {
	ID        string         `json:"id"         validate:"required"`
	Name      string         `json:"name"       validate:"required,min=1"`
	Nodes     []*Node        `json:"nodes"`
	Edges     []*Edge        `json:"edges"`
	Variables map[string]any `json:"variables,omitempty"`
	Schedule  ScheduleSpec   `json:"schedule"`
	Headless  bool           `json:"headless"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FindNode returns the node with the given id, or nil.
func (a *Automation) FindNode(id string) *Node {
	for _, n := range a.Nodes {
		if n.ID == id {
			return n
		}
	}

	return nil
}

// AddEdge appends an edge after enforcing branch exclusivity: a condition node
// may have at most one "if" and one "else" outgoing edge, a step node at most
// one unlabelled outgoing edge, and never two edges of the same label.
func (a *Automation) AddEdge(edge *Edge) error {
	source := a.FindNode(edge.Source)
	if source == nil {
		return fmt.Errorf("edge %s: source node %s not found: %w", edge.ID, edge.Source, ErrEdgeEndpointUnknown)
	}

	if a.FindNode(edge.Target) == nil {
		return fmt.Errorf("edge %s: target node %s not found: %w", edge.ID, edge.Target, ErrEdgeEndpointUnknown)
	}

	if source.IsConditionNode() {
		if edge.Branch != BranchIf && edge.Branch != BranchElse {
			return fmt.Errorf("edge %s from condition node %s must be labelled if or else: %w",
				edge.ID, edge.Source, ErrEdgeBranchInvalid)
		}
	} else if edge.Branch != BranchNone {
		return fmt.Errorf("edge %s from step node %s must be unlabelled: %w",
			edge.ID, edge.Source, ErrEdgeBranchInvalid)
	}

	for _, existing := range a.Edges {
		if existing.Source == edge.Source && existing.Branch == edge.Branch {
			return fmt.Errorf("node %s already has an outgoing %q edge: %w",
				edge.Source, edge.Branch, ErrEdgeBranchDuplicate)
		}
	}

	a.Edges = append(a.Edges, edge)

	return nil
}

// Validate checks graph-level consistency: node payloads and branch exclusivity.
// Edges referencing unknown nodes are tolerated here; the runner drops them with
// a warning at execution time.
func (a *Automation) Validate() error {
	if a.ID == "" || a.Name == "" {
		return ErrAutomationInvalid
	}

	seen := make(map[string]bool, len(a.Nodes))

	for _, node := range a.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("duplicate node id %s: %w", node.ID, ErrAutomationInvalid)
		}

		seen[node.ID] = true

		if err := node.Validate(); err != nil {
			return err
		}

		if node.IsConditionNode() {
			if err := node.Condition.Validate(); err != nil {
				return fmt.Errorf("node %s: %w", node.ID, err)
			}
		}
	}

	outgoing := make(map[string]map[BranchLabel]bool)

	for _, edge := range a.Edges {
		labels, ok := outgoing[edge.Source]
		if !ok {
			labels = make(map[BranchLabel]bool)
			outgoing[edge.Source] = labels
		}

		if labels[edge.Branch] {
			return fmt.Errorf("node %s has two outgoing %q edges: %w",
				edge.Source, edge.Branch, ErrEdgeBranchDuplicate)
		}

		labels[edge.Branch] = true
	}

	return a.Schedule.Validate()
}

var (
	// ErrAutomationInvalid is returned when automation-level validation fails.
	ErrAutomationInvalid = errors.New("invalid automation")
	// ErrEdgeEndpointUnknown is returned when an edge references a node that does not exist.
	ErrEdgeEndpointUnknown = errors.New("edge endpoint not in node set")
	// ErrEdgeBranchInvalid is returned when an edge label does not fit its source node kind.
	ErrEdgeBranchInvalid = errors.New("invalid edge branch label")
	// ErrEdgeBranchDuplicate is returned when a node would gain two same-labelled outgoing edges.
	ErrEdgeBranchDuplicate = errors.New("duplicate branch label on outgoing edge")
)
