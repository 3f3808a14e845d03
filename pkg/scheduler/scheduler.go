// Package scheduler turns persisted schedule records into in-memory timers
// that trigger automation runs and log their outcomes. Timer handles live
// only in memory; they are rebuilt from the schedule store on process start.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/webpilot-io/webpilot/pkg/models"
	"github.com/webpilot-io/webpilot/pkg/persistence"
	"github.com/webpilot-io/webpilot/pkg/runner"
)

// Executor runs one automation to completion. The daemon wires the full
// service here; tests wire a stub.
type Executor interface {
	Execute(ctx context.Context, automation *models.Automation, headless bool) (*runner.Result, error)
}

// ScheduledTask is the in-memory handle for one armed schedule. Never
// persisted; destroyed on unschedule or process exit.
type ScheduledTask struct {
	ScheduleID   string
	AutomationID string
	Spec         models.ScheduleSpec
	Enabled      bool

	cancel context.CancelFunc
}

type Scheduler struct {
	store    persistence.Persistence
	executor Executor
	logger   *slog.Logger

	mu    sync.Mutex
	tasks map[string]*ScheduledTask
	wg    sync.WaitGroup
}

func NewScheduler(store persistence.Persistence, executor Executor, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		executor: executor,
		logger:   logger,
		tasks:    make(map[string]*ScheduledTask),
	}
}

// Activate validates the record and arms its timer. A manual schedule
// registers no timer. An invalid spec fails activation with a descriptive
// error and the schedule is simply not armed.
func (s *Scheduler) Activate(ctx context.Context, record *models.ScheduleRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("schedule %s failed activation: %w", record.ID, err)
	}

	if record.Spec.Type == models.ScheduleTypeManual {
		return nil
	}

	// Re-activation replaces any existing timer for this schedule.
	s.Deactivate(record.ID)

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	task := &ScheduledTask{
		ScheduleID:   record.ID,
		AutomationID: record.AutomationID,
		Spec:         record.Spec,
		Enabled:      true,
		cancel:       cancel,
	}

	s.mu.Lock()
	s.tasks[record.ID] = task
	s.mu.Unlock()

	switch record.Spec.Type {
	case models.ScheduleTypeInterval:
		interval, err := record.Spec.IntervalDuration()
		if err != nil {
			s.Deactivate(record.ID)

			return err
		}

		s.spawn(func() { s.runInterval(taskCtx, record, interval) })
	case models.ScheduleTypeCron:
		s.spawn(func() { s.runCron(taskCtx, record) })
	case models.ScheduleTypeOnce:
		delay := time.Until(*record.Spec.At)
		if delay <= 0 {
			// Target time already passed: fire immediately, exactly once.
			s.fire(taskCtx, record)
			s.selfDeactivate(taskCtx, record)

			return nil
		}

		s.spawn(func() { s.runOnce(taskCtx, record, delay) })
	}

	s.logger.Info("schedule activated",
		"schedule_id", record.ID,
		"automation_id", record.AutomationID,
		"type", record.Spec.Type)

	return nil
}

// Deactivate stops the schedule's timer without touching the persisted
// record. Unknown ids are a no-op.
func (s *Scheduler) Deactivate(scheduleID string) {
	s.mu.Lock()
	task, ok := s.tasks[scheduleID]

	if ok {
		delete(s.tasks, scheduleID)
	}
	s.mu.Unlock()

	if ok {
		task.cancel()
		s.logger.Info("schedule deactivated", "schedule_id", scheduleID)
	}
}

// SetEnabled toggles the persisted record and arms or disarms its timer.
// Re-enabling arms from the current moment; missed firings are not replayed.
func (s *Scheduler) SetEnabled(ctx context.Context, scheduleID string, enabled bool) error {
	record, err := s.store.Schedules().GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}

	if record == nil {
		return fmt.Errorf("schedule %s: %w", scheduleID, models.ErrScheduleInvalid)
	}

	record.Enabled = enabled
	if err := s.store.Schedules().Save(ctx, record); err != nil {
		return err
	}

	if enabled {
		return s.Activate(ctx, record)
	}

	s.Deactivate(scheduleID)

	return nil
}

// ReplayAll re-arms every persisted, enabled schedule. A schedule whose
// automation no longer exists is skipped and logged, never fatal.
func (s *Scheduler) ReplayAll(ctx context.Context) error {
	records, err := s.store.Schedules().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	for _, record := range records {
		if !record.Enabled {
			continue
		}

		automation, err := s.store.Automations().GetByID(ctx, record.AutomationID)
		if err != nil {
			s.logger.Warn("skipping schedule, automation lookup failed",
				"schedule_id", record.ID, "automation_id", record.AutomationID, "error", err)

			continue
		}

		if automation == nil {
			s.logger.Warn("skipping schedule, automation no longer exists",
				"schedule_id", record.ID, "automation_id", record.AutomationID)

			continue
		}

		if err := s.Activate(ctx, record); err != nil {
			s.logger.Warn("skipping schedule, activation failed",
				"schedule_id", record.ID, "error", err)
		}
	}

	return nil
}

// Tasks returns a snapshot of the armed schedules.
func (s *Scheduler) Tasks() []*ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}

	return out
}

// Stop disarms every schedule and waits for in-flight firings to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, task := range s.tasks {
		task.cancel()
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) spawn(fn func()) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *Scheduler) runInterval(ctx context.Context, record *models.ScheduleRecord, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, record)
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context, record *models.ScheduleRecord) {
	for {
		next, err := record.Spec.NextCron(time.Now())
		if err != nil {
			// Validated at activation; a failure here means the stored record
			// changed underneath us. Disarm rather than spin.
			s.logger.Error("cron schedule became invalid", "schedule_id", record.ID, "error", err)

			return
		}

		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()

			return
		case <-timer.C:
			s.fire(ctx, record)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, record *models.ScheduleRecord, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		s.fire(ctx, record)
		s.selfDeactivate(ctx, record)
	}
}

// selfDeactivate marks a once schedule inactive after its single firing,
// success or failure alike.
func (s *Scheduler) selfDeactivate(ctx context.Context, record *models.ScheduleRecord) {
	record.Enabled = false
	if err := s.store.Schedules().Save(ctx, record); err != nil {
		s.logger.Error("failed to persist once-schedule deactivation",
			"schedule_id", record.ID, "error", err)
	}

	s.mu.Lock()
	task, ok := s.tasks[record.ID]

	if ok {
		delete(s.tasks, record.ID)
	}
	s.mu.Unlock()

	if ok {
		task.cancel()
	}
}

// fire executes one scheduled run and appends its log entry. Nothing thrown
// by a run escapes the firing: the timer stays armed for the next occurrence.
func (s *Scheduler) fire(ctx context.Context, record *models.ScheduleRecord) {
	logger := s.logger.With("schedule_id", record.ID, "automation_id", record.AutomationID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during scheduled run", "panic", r)
		}
	}()

	// Always load the current stored graph, never a snapshot from
	// schedule-creation time: edits since scheduling apply.
	automation, err := s.store.Automations().GetByID(ctx, record.AutomationID)
	if err != nil || automation == nil {
		logger.Warn("scheduled automation unavailable", "error", err)

		return
	}

	if !automation.Enabled {
		logger.Info("skipping firing, automation disabled")

		return
	}

	started := time.Now().UTC()
	result, runErr := s.executor.Execute(ctx, automation, automation.Headless)

	entry := &models.ExecutionLogEntry{
		AutomationID: automation.ID,
		Timestamp:    started,
	}

	switch {
	case runErr != nil:
		entry.Success = false
		entry.Error = runErr.Error()
		entry.DurationMS = time.Since(started).Milliseconds()
	default:
		entry.RunID = result.RunID
		entry.Success = result.Success
		entry.Error = result.Error
		entry.DurationMS = result.Duration.Milliseconds()
		entry.StepsExecuted = result.StepsExecuted
		entry.StepsSucceeded = result.StepsSucceeded

		if !automation.Headless {
			entry.FinalVariables = result.FinalVariables
		}
	}

	if err := s.store.Logs().Append(ctx, entry); err != nil {
		logger.Error("failed to append execution log", "error", err)
	}

	logger.Info("scheduled run finished", "success", entry.Success, "duration_ms", entry.DurationMS)
}
