package file

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-io/webpilot/pkg/models"
)

// writeCredential plants a credential file the way the external credential
// manager would.
func writeCredential(t *testing.T, root string, cred *models.Credential) {
	t.Helper()

	dir := path.Join(root, "credentials")
	require.NoError(t, os.MkdirAll(dir, 0750))

	data, err := json.Marshal(cred)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path.Join(dir, cred.ID+".json"), data, 0600))
}

func TestAutomationRepository_RoundTrip(t *testing.T) {
	store := NewPersistence(t.TempDir())
	ctx := context.Background()

	automation := &models.Automation{
		ID:   "a1",
		Name: "price watcher",
		Nodes: []*models.Node{{
			ID:   "n1",
			Kind: models.NodeKindStep,
			Step: &models.Step{Type: models.StepTypeNavigate, Config: map[string]any{"url": "https://example.com"}},
		}},
		Variables: map[string]any{"threshold": float64(100)},
		Schedule:  models.ScheduleSpec{Type: models.ScheduleTypeManual},
		Headless:  true,
		Enabled:   true,
	}

	require.NoError(t, store.Automations().Save(ctx, automation))
	assert.False(t, automation.CreatedAt.IsZero())
	assert.False(t, automation.UpdatedAt.IsZero())

	loaded, err := store.Automations().GetByID(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "price watcher", loaded.Name)
	assert.Equal(t, models.StepTypeNavigate, loaded.Nodes[0].Step.Type)
	assert.Equal(t, float64(100), loaded.Variables["threshold"])
	assert.True(t, loaded.Headless)
}

func TestAutomationRepository_GetMissing(t *testing.T) {
	store := NewPersistence(t.TempDir())

	loaded, err := store.Automations().GetByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestAutomationRepository_SavePreservesCreatedAt(t *testing.T) {
	store := NewPersistence(t.TempDir())
	ctx := context.Background()

	automation := &models.Automation{ID: "a1", Name: "v1"}
	require.NoError(t, store.Automations().Save(ctx, automation))

	created := automation.CreatedAt

	automation.Name = "v2"
	require.NoError(t, store.Automations().Save(ctx, automation))

	loaded, err := store.Automations().GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Name)
	assert.Equal(t, created.Unix(), loaded.CreatedAt.Unix())
}

func TestAutomationRepository_ListAndDelete(t *testing.T) {
	store := NewPersistence(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Automations().Save(ctx, &models.Automation{ID: "a1", Name: "one"}))
	require.NoError(t, store.Automations().Save(ctx, &models.Automation{ID: "a2", Name: "two"}))

	all, err := store.Automations().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Automations().Delete(ctx, "a1"))

	all, err = store.Automations().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a2", all[0].ID)

	// Deleting an absent id is tolerated.
	assert.NoError(t, store.Automations().Delete(ctx, "a1"))
}

func TestScheduleRepository_RoundTrip(t *testing.T) {
	store := NewPersistence(t.TempDir())
	ctx := context.Background()

	record := &models.ScheduleRecord{
		ID:           "sch-1",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 5, Unit: models.UnitMinutes},
		Enabled:      true,
	}

	require.NoError(t, store.Schedules().Save(ctx, record))

	loaded, err := store.Schedules().GetByID(ctx, "sch-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "a1", loaded.AutomationID)
	assert.Equal(t, models.ScheduleTypeInterval, loaded.Spec.Type)
	assert.True(t, loaded.Enabled)

	missing, err := store.Schedules().GetByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Schedules().Delete(ctx, "sch-1"))

	all, err := store.Schedules().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestExecutionLogRepository_RecentOrderingAndCap(t *testing.T) {
	store := NewPersistence(t.TempDir())
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := range 5 {
		entry := &models.ExecutionLogEntry{
			AutomationID: "a1",
			RunID:        "run-" + string(rune('a'+i)),
			Timestamp:    base.Add(time.Duration(i) * time.Minute),
			Success:      true,
		}
		require.NoError(t, store.Logs().Append(ctx, entry))
	}

	// Another automation's entries must not leak in.
	require.NoError(t, store.Logs().Append(ctx, &models.ExecutionLogEntry{
		AutomationID: "b2",
		Timestamp:    base.Add(time.Hour),
	}))

	entries, err := store.Logs().Recent(ctx, "a1", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "run-e", entries[0].RunID)
	assert.Equal(t, "run-d", entries[1].RunID)
	assert.Equal(t, "run-c", entries[2].RunID)

	// Zero limit falls back to the default cap.
	entries, err = store.Logs().Recent(ctx, "a1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestExecutionLogRepository_EmptyDir(t *testing.T) {
	store := NewPersistence(t.TempDir())

	entries, err := store.Logs().Recent(context.Background(), "a1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCredentialStore(t *testing.T) {
	root := t.TempDir()
	store := NewPersistence(root)
	ctx := context.Background()

	writeCredential(t, root, &models.Credential{
		ID:   "cred-1",
		Type: "chat",
		Data: map[string]string{"token": "secret"},
	})

	cred, err := store.Credentials().GetCredential(ctx, "cred-1")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "secret", cred.Get("token"))
	assert.Equal(t, "", cred.Get("missing"))

	absent, err := store.Credentials().GetCredential(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestHealthCheck(t *testing.T) {
	root := t.TempDir()
	store := NewPersistence(root)

	assert.NoError(t, store.HealthCheck(context.Background()))

	missing := NewPersistence(root + "/does-not-exist")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestNewPersistence_StripsFileScheme(t *testing.T) {
	root := t.TempDir()
	store := NewPersistence("file://" + root)

	assert.NoError(t, store.HealthCheck(context.Background()))
}
