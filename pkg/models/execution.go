package models

import "time"

// ExecutionLogEntry records the outcome of one run. One JSON file per run,
// append-only, never mutated after write.
type ExecutionLogEntry struct {
	AutomationID   string         `json:"automation_id"`
	RunID          string         `json:"run_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Success        bool           `json:"success"`
	DurationMS     int64          `json:"duration_ms"`
	Error          string         `json:"error,omitempty"`
	StepsExecuted  int            `json:"steps_executed"`
	StepsSucceeded int            `json:"steps_succeeded"`
	FinalVariables map[string]any `json:"final_variables,omitempty"`
}
