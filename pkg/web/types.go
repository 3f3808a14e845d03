package web

import "github.com/webpilot-io/webpilot/pkg/models"

// CreateAutomationRequest carries a new automation document. The ID is
// assigned server-side when omitted.
type CreateAutomationRequest struct {
	Name      string              `json:"name"      validate:"required,min=1"`
	Nodes     []*models.Node      `json:"nodes"`
	Edges     []*models.Edge      `json:"edges"`
	Variables map[string]any      `json:"variables"`
	Schedule  models.ScheduleSpec `json:"schedule"`
	Headless  bool                `json:"headless"`
	Enabled   bool                `json:"enabled"`
}

// UpdateAutomationRequest replaces an automation wholesale. Partial updates
// are not supported; the stored document is overwritten.
type UpdateAutomationRequest struct {
	Name      string              `json:"name"      validate:"required,min=1"`
	Nodes     []*models.Node      `json:"nodes"`
	Edges     []*models.Edge      `json:"edges"`
	Variables map[string]any      `json:"variables"`
	Schedule  models.ScheduleSpec `json:"schedule"`
	Headless  bool                `json:"headless"`
	Enabled   bool                `json:"enabled"`
}

// RunAutomationRequest optionally overrides the stored headless flag for one
// interactive run.
type RunAutomationRequest struct {
	Headless *bool `json:"headless"`
}

// CreateScheduleRequest registers and arms a schedule for an automation.
type CreateScheduleRequest struct {
	AutomationID string              `json:"workflow_id" validate:"required"`
	Spec         models.ScheduleSpec `json:"schedule"    validate:"required"`
	Headless     bool                `json:"headless"`
}

// SetScheduleEnabledRequest toggles a schedule without catch-up runs.
type SetScheduleEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}
