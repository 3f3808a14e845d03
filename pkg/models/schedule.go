package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduleType discriminates how an automation is triggered over time.
type ScheduleType string

const (
	ScheduleTypeManual   ScheduleType = "manual"   // No timer; interactive runs only
	ScheduleTypeInterval ScheduleType = "interval" // Repeating fixed interval
	ScheduleTypeCron     ScheduleType = "cron"     // Cron expression
	ScheduleTypeOnce     ScheduleType = "once"     // Single firing at a point in time
)

// IntervalUnit normalizes interval schedules to a duration.
type IntervalUnit string

const (
	UnitSeconds IntervalUnit = "seconds"
	UnitMinutes IntervalUnit = "minutes"
	UnitHours   IntervalUnit = "hours"
	UnitDays    IntervalUnit = "days"
)

// ScheduleSpec is the tagged schedule definition stored with an automation.
// Exactly one variant's fields are meaningful, selected by Type.
type ScheduleSpec struct {
	Type       ScheduleType `json:"type"                 validate:"required,oneof=manual interval cron once"`
	Every      int          `json:"every,omitempty"`
	Unit       IntervalUnit `json:"unit,omitempty"`
	Expression string       `json:"expression,omitempty"`
	At         *time.Time   `json:"at,omitempty"`
}

// cronParser accepts standard five-field expressions plus an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate checks the variant fields for the schedule type. An invalid cron expression is a
// configuration error surfaced here, at activation time, never at firing time.
func (s ScheduleSpec) Validate() error {
	switch s.Type {
	case ScheduleTypeManual:
		return nil
	case ScheduleTypeInterval:
		if s.Every <= 0 {
			return fmt.Errorf("interval schedule needs a positive period, got %d: %w", s.Every, ErrScheduleInvalid)
		}

		if _, err := s.IntervalDuration(); err != nil {
			return err
		}

		return nil
	case ScheduleTypeCron:
		if _, err := cronParser.Parse(s.Expression); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.Expression, err)
		}

		return nil
	case ScheduleTypeOnce:
		if s.At == nil {
			return fmt.Errorf("once schedule needs a target time: %w", ErrScheduleInvalid)
		}

		return nil
	default:
		return fmt.Errorf("unknown schedule type %q: %w", s.Type, ErrScheduleInvalid)
	}
}

// IntervalDuration converts an interval spec to a duration.
func (s ScheduleSpec) IntervalDuration() (time.Duration, error) {
	var unit time.Duration

	switch s.Unit {
	case UnitSeconds:
		unit = time.Second
	case UnitMinutes, "":
		unit = time.Minute
	case UnitHours:
		unit = time.Hour
	case UnitDays:
		unit = 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown interval unit %q: %w", s.Unit, ErrScheduleInvalid)
	}

	return time.Duration(s.Every) * unit, nil
}

// NextCron computes the next firing after the reference time for a cron spec.
func (s ScheduleSpec) NextCron(after time.Time) (time.Time, error) {
	parsed, err := cronParser.Parse(s.Expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", s.Expression, err)
	}

	return parsed.Next(after), nil
}

// ScheduleRecord is the persisted schedule document, one JSON file per schedule.
// The in-memory timer handle is rebuilt from these on process start.
type ScheduleRecord struct {
	ID             string       `json:"id"              validate:"required"`
	AutomationID   string       `json:"workflow_id"     validate:"required"`
	AutomationName string       `json:"workflow_name"`
	Spec           ScheduleSpec `json:"schedule"`
	Enabled        bool         `json:"enabled"`
	Headless       bool         `json:"headless"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Validate performs validation on the schedule record fields.
func (r *ScheduleRecord) Validate() error {
	if r.ID == "" || r.AutomationID == "" {
		return ErrScheduleInvalid
	}

	return r.Spec.Validate()
}

// ErrScheduleInvalid is returned when schedule validation fails.
var ErrScheduleInvalid = errors.New("invalid schedule configuration")
