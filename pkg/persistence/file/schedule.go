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

// ScheduleRepository handles schedule file operations under <root>/schedules.
type ScheduleRepository struct {
	root string
}

func NewScheduleRepository(root string) *ScheduleRepository {
	return &ScheduleRepository{root: root}
}

func (r *ScheduleRepository) dir() string {
	return path.Join(r.root, "schedules")
}

func (r *ScheduleRepository) Save(_ context.Context, record *models.ScheduleRecord) error {
	if err := os.MkdirAll(r.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create schedules directory: %w", err)
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule %s: %w", record.ID, err)
	}

	filePath := filepath.Clean(path.Join(r.dir(), record.ID+".json"))
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write schedule %s: %w", record.ID, err)
	}

	return nil
}

func (r *ScheduleRepository) GetByID(_ context.Context, id string) (*models.ScheduleRecord, error) {
	filePath := filepath.Clean(path.Join(r.dir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read schedule %s: %w", id, err)
	}

	var record models.ScheduleRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule %s: %w", id, err)
	}

	return &record, nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]*models.ScheduleRecord, error) {
	files, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	records := make([]*models.ScheduleRecord, 0, len(files))

	for _, file := range files {
		id := file[:len(file)-len(".json")]

		record, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if record != nil {
			records = append(records, record)
		}
	}

	return records, nil
}

func (r *ScheduleRepository) Delete(_ context.Context, id string) error {
	filePath := filepath.Clean(path.Join(r.dir(), id+".json"))

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete schedule %s: %w", id, err)
	}

	return nil
}
