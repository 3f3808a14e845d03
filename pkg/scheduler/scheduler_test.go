package scheduler

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/persistence/file"
	"github.com/webpilot-io/webpilot/pkg/runner"
)

// stubExecutor records every execution request.
type stubExecutor struct {
	mu       sync.Mutex
	calls    []string
	headless []bool
	result   *runner.Result
}

func (e *stubExecutor) Execute(_ context.Context, automation *models.Automation, headless bool) (*runner.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, automation.Name)
	e.headless = append(e.headless, headless)

	result := e.result
	if result == nil {
		result = &runner.Result{
			RunID:          "run-test",
			Success:        true,
			StepsExecuted:  1,
			StepsSucceeded: 1,
			FinalVariables: map[string]any{"out": "value"},
		}
	}

	return result, nil
}

func (e *stubExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.calls)
}

func testScheduler(t *testing.T) (*Scheduler, *file.Persistence, *stubExecutor) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	executor := &stubExecutor{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	sched := NewScheduler(store, executor, logger)

	t.Cleanup(sched.Stop)

	return sched, store, executor
}

func saveAutomation(t *testing.T, store *file.Persistence, automation *models.Automation) {
	t.Helper()
	require.NoError(t, store.Automations().Save(context.Background(), automation))
}

func TestActivate_OnceInPastFiresImmediately(t *testing.T) {
	sched, store, executor := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{
		ID: "a1", Name: "past-once", Enabled: true, Headless: true,
	})

	past := time.Now().Add(-time.Hour)
	record := &models.ScheduleRecord{
		ID:           "sch-1",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeOnce, At: &past},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))

	require.NoError(t, sched.Activate(ctx, record))

	// The firing happens inside Activate, before it returns.
	assert.Equal(t, 1, executor.callCount())
	assert.Empty(t, sched.Tasks())

	stored, err := store.Schedules().GetByID(ctx, "sch-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Enabled)

	entries, err := store.Logs().Recent(ctx, "a1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.Nil(t, entries[0].FinalVariables)
}

func TestActivate_InvalidCronNotArmed(t *testing.T) {
	sched, _, executor := testScheduler(t)

	record := &models.ScheduleRecord{
		ID:           "sch-bad",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeCron, Expression: "nope"},
		Enabled:      true,
	}

	err := sched.Activate(context.Background(), record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed activation")
	assert.Empty(t, sched.Tasks())
	assert.Equal(t, 0, executor.callCount())
}

func TestActivate_ManualRegistersNoTimer(t *testing.T) {
	sched, _, _ := testScheduler(t)

	record := &models.ScheduleRecord{
		ID:           "sch-manual",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeManual},
	}

	require.NoError(t, sched.Activate(context.Background(), record))
	assert.Empty(t, sched.Tasks())
}

func TestActivate_IntervalArmsTimer(t *testing.T) {
	sched, store, executor := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{
		ID: "a1", Name: "ticking", Enabled: true,
	})

	record := &models.ScheduleRecord{
		ID:           "sch-int",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 50, Unit: models.UnitSeconds},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))

	require.NoError(t, sched.Activate(ctx, record))

	tasks := sched.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "sch-int", tasks[0].ScheduleID)
	assert.Equal(t, 0, executor.callCount())

	sched.Deactivate("sch-int")
	assert.Empty(t, sched.Tasks())
}

func TestFire_ReloadsCurrentAutomation(t *testing.T) {
	sched, store, executor := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{ID: "a1", Name: "original", Enabled: true})

	past := time.Now().Add(-time.Minute)
	record := &models.ScheduleRecord{
		ID:           "sch-reload",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeOnce, At: &past},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))

	// Edit after scheduling; the firing must see the edit.
	saveAutomation(t, store, &models.Automation{ID: "a1", Name: "edited", Enabled: true})

	require.NoError(t, sched.Activate(ctx, record))

	require.Equal(t, 1, executor.callCount())
	assert.Equal(t, "edited", executor.calls[0])
}

func TestFire_SkipsDisabledAutomation(t *testing.T) {
	sched, store, executor := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{ID: "a1", Name: "off", Enabled: false})

	past := time.Now().Add(-time.Minute)
	record := &models.ScheduleRecord{
		ID:           "sch-off",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeOnce, At: &past},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))

	require.NoError(t, sched.Activate(ctx, record))

	assert.Equal(t, 0, executor.callCount())

	// The once schedule still burns its single firing.
	stored, err := store.Schedules().GetByID(ctx, "sch-off")
	require.NoError(t, err)
	assert.False(t, stored.Enabled)
}

func TestFire_WindowedRunKeepsFinalVariables(t *testing.T) {
	sched, store, executor := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{
		ID: "a1", Name: "windowed", Enabled: true, Headless: false,
	})

	past := time.Now().Add(-time.Minute)
	record := &models.ScheduleRecord{
		ID:           "sch-vars",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeOnce, At: &past},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))
	require.NoError(t, sched.Activate(ctx, record))

	require.Equal(t, 1, executor.callCount())
	assert.False(t, executor.headless[0])

	entries, err := store.Logs().Recent(ctx, "a1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]any{"out": "value"}, entries[0].FinalVariables)
}

func TestSetEnabled(t *testing.T) {
	sched, store, _ := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{ID: "a1", Name: "toggled", Enabled: true})

	record := &models.ScheduleRecord{
		ID:           "sch-toggle",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 1, Unit: models.UnitHours},
		Enabled:      true,
	}
	require.NoError(t, store.Schedules().Save(ctx, record))
	require.NoError(t, sched.Activate(ctx, record))
	require.Len(t, sched.Tasks(), 1)

	require.NoError(t, sched.SetEnabled(ctx, "sch-toggle", false))
	assert.Empty(t, sched.Tasks())

	stored, err := store.Schedules().GetByID(ctx, "sch-toggle")
	require.NoError(t, err)
	assert.False(t, stored.Enabled)

	require.NoError(t, sched.SetEnabled(ctx, "sch-toggle", true))
	assert.Len(t, sched.Tasks(), 1)
}

func TestSetEnabled_UnknownSchedule(t *testing.T) {
	sched, _, _ := testScheduler(t)

	err := sched.SetEnabled(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, models.ErrScheduleInvalid)
}

func TestReplayAll(t *testing.T) {
	sched, store, _ := testScheduler(t)
	ctx := context.Background()

	saveAutomation(t, store, &models.Automation{ID: "a1", Name: "kept", Enabled: true})

	armed := &models.ScheduleRecord{
		ID:           "sch-armed",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 1, Unit: models.UnitHours},
		Enabled:      true,
	}
	disabled := &models.ScheduleRecord{
		ID:           "sch-disabled",
		AutomationID: "a1",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 1, Unit: models.UnitHours},
		Enabled:      false,
	}
	orphan := &models.ScheduleRecord{
		ID:           "sch-orphan",
		AutomationID: "gone",
		Spec:         models.ScheduleSpec{Type: models.ScheduleTypeInterval, Every: 1, Unit: models.UnitHours},
		Enabled:      true,
	}

	require.NoError(t, store.Schedules().Save(ctx, armed))
	require.NoError(t, store.Schedules().Save(ctx, disabled))
	require.NoError(t, store.Schedules().Save(ctx, orphan))

	require.NoError(t, sched.ReplayAll(ctx))

	tasks := sched.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "sch-armed", tasks[0].ScheduleID)
}
