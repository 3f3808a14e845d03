// Package file provides file-based persistence: one JSON document per
// automation, schedule, credential and execution-log entry.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/webpilot-io/webpilot/pkg/persistence"
	"github.com/webpilot-io/webpilot/pkg/protocol"
)

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	root            string
	automationRepo  *AutomationRepository
	scheduleRepo    *ScheduleRepository
	logRepo         *ExecutionLogRepository
	credentialStore *CredentialStore
}

// NewPersistence creates a file-backed store rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:            cleanRoot,
		automationRepo:  NewAutomationRepository(cleanRoot),
		scheduleRepo:    NewScheduleRepository(cleanRoot),
		logRepo:         NewExecutionLogRepository(cleanRoot),
		credentialStore: NewCredentialStore(cleanRoot),
	}
}

func (p *Persistence) Automations() persistence.AutomationRepository { return p.automationRepo }

func (p *Persistence) Schedules() persistence.ScheduleRepository { return p.scheduleRepo }

func (p *Persistence) Logs() persistence.ExecutionLogRepository { return p.logRepo }

func (p *Persistence) Credentials() protocol.CredentialStore { return p.credentialStore }

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup; nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
