// Package models defines the core domain models for graph-based browser automations.
package models

import (
	"errors"
	"fmt"
	"time"
)

// NodeKind discriminates the two unit-of-work kinds in a graph.
type NodeKind string

const (
	NodeKindStep      NodeKind = "step"      // Action nodes (browser, http, variable ops, messaging, ...)
	NodeKindCondition NodeKind = "condition" // Branch nodes routing to an if/else edge
)

// Node represents one unit of graph work: either an action step or a branch condition.
type Node struct {
	ID        string     `json:"id"                  validate:"required"`
	Kind      NodeKind   `json:"kind"                validate:"required,oneof=step condition"`
	Step      *Step      `json:"step,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
	PositionX int        `json:"position_x"`
	PositionY int        `json:"position_y"`
}

func (n *Node) IsStepNode() bool {
	return n.Kind == NodeKindStep
}

func (n *Node) IsConditionNode() bool {
	return n.Kind == NodeKindCondition
}

// Validate checks that the node payload matches its kind.
func (n *Node) Validate() error {
	switch n.Kind {
	case NodeKindStep:
		if n.Step == nil {
			return fmt.Errorf("node %s: %w", n.ID, ErrNodeMissingStep)
		}
	case NodeKindCondition:
		if n.Condition == nil {
			return fmt.Errorf("node %s: %w", n.ID, ErrNodeMissingCondition)
		}
	default:
		return fmt.Errorf("node %s: unknown kind %q: %w", n.ID, n.Kind, ErrNodeKindInvalid)
	}

	return nil
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// NodeResult represents the outcome of one node execution within a run.
type NodeResult struct {
	NodeID    string     `json:"node_id"`
	Status    NodeStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Error     string     `json:"error,omitempty"`
}

var (
	// ErrNodeMissingStep is returned when a step node carries no step payload.
	ErrNodeMissingStep = errors.New("step node has no step payload")
	// ErrNodeMissingCondition is returned when a condition node carries no condition payload.
	ErrNodeMissingCondition = errors.New("condition node has no condition payload")
	// ErrNodeKindInvalid is returned for an unrecognized node kind.
	ErrNodeKindInvalid = errors.New("invalid node kind")
)
