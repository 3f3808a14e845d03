// Package persistence defines the storage contracts for automations,
// schedules and execution logs.
package persistence

import (
	"context"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/protocol"
)

// AutomationRepository stores automation documents. Saves overwrite wholesale,
// last writer wins; there is no partial-update format.
type AutomationRepository interface {
	Save(ctx context.Context, automation *models.Automation) error
	// GetByID returns (nil, nil) when the automation does not exist.
	GetByID(ctx context.Context, id string) (*models.Automation, error)
	List(ctx context.Context) ([]*models.Automation, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleRepository stores schedule records, one document per schedule id.
type ScheduleRepository interface {
	Save(ctx context.Context, record *models.ScheduleRecord) error
	// GetByID returns (nil, nil) when the schedule does not exist.
	GetByID(ctx context.Context, id string) (*models.ScheduleRecord, error)
	List(ctx context.Context) ([]*models.ScheduleRecord, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionLogRepository is an append-only sink of run outcomes.
type ExecutionLogRepository interface {
	Append(ctx context.Context, entry *models.ExecutionLogEntry) error
	// Recent returns up to limit entries for the automation, newest first.
	Recent(ctx context.Context, automationID string, limit int) ([]*models.ExecutionLogEntry, error)
}

// Persistence bundles the repositories behind one storage backend.
type Persistence interface {
	Automations() AutomationRepository
	Schedules() ScheduleRepository
	Logs() ExecutionLogRepository
	Credentials() protocol.CredentialStore

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
