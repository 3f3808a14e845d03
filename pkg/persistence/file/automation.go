package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// AutomationRepository handles automation file operations under
// <root>/automations.
type AutomationRepository struct {
	root string
}

func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

func (r *AutomationRepository) dir() string {
	return path.Join(r.root, "automations")
}

// Save writes the automation document, overwriting any previous version.
func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	if err := os.MkdirAll(r.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create automations directory: %w", err)
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	filePath := filepath.Clean(path.Join(r.dir(), automation.ID+".json"))
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write automation %s: %w", automation.ID, err)
	}

	return nil
}

// GetByID reads one automation; (nil, nil) when absent.
func (r *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	filePath := filepath.Clean(path.Join(r.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read automation %s: %w", id, err)
	}

	var automation models.Automation
	if err := json.Unmarshal(body, &automation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}

// List returns every stored automation.
func (r *AutomationRepository) List(ctx context.Context) ([]*models.Automation, error) {
	files, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}

	automations := make([]*models.Automation, 0, len(files))

	for _, file := range files {
		id := file[:len(file)-len(".json")]

		automation, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if automation != nil {
			automations = append(automations, automation)
		}
	}

	return automations, nil
}

// Delete removes the automation document. Deleting an absent id is a no-op.
func (r *AutomationRepository) Delete(_ context.Context, id string) error {
	filePath := filepath.Clean(path.Join(r.dir(), id+".json"))

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	return nil
}
