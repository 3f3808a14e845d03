package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// ExecutionLogRepository is an append-only directory of run outcomes under
// <root>/logs. Files are named <automationID>-<unix-milliseconds>.json so a
// descending filename sort is a descending time sort.
type ExecutionLogRepository struct {
	root string
}

func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root}
}

func (r *ExecutionLogRepository) dir() string {
	return path.Join(r.root, "logs")
}

// Append writes one entry. Entries are never rewritten.
func (r *ExecutionLogRepository) Append(_ context.Context, entry *models.ExecutionLogEntry) error {
	if err := os.MkdirAll(r.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal log entry for %s: %w", entry.AutomationID, err)
	}

	name := entry.AutomationID + "-" + strconv.FormatInt(entry.Timestamp.UnixMilli(), 10) + ".json"

	filePath := filepath.Clean(path.Join(r.dir(), name))
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write log entry for %s: %w", entry.AutomationID, err)
	}

	return nil
}

// Recent lists the automation's entries, newest first, capped at limit.
func (r *ExecutionLogRepository) Recent(_ context.Context, automationID string, limit int) ([]*models.ExecutionLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	files, err := fs.Glob(os.DirFS(r.dir()), automationID+"-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	if len(files) > limit {
		files = files[:limit]
	}

	entries := make([]*models.ExecutionLogEntry, 0, len(files))

	for _, file := range files {
		body, err := os.ReadFile(filepath.Clean(path.Join(r.dir(), file)))
		if err != nil {
			return nil, fmt.Errorf("failed to read log entry %s: %w", file, err)
		}

		var entry models.ExecutionLogEntry
		if err := json.Unmarshal(body, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log entry %s: %w", file, err)
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}
