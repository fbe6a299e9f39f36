// Package recurrence holds the per-definition progress rules and the engine that
// materializes a due occurrence into a transaction and notification.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"spendwise/internal/calendar"
	"spendwise/internal/models"
)

// State is the lifecycle position of a recurrence.
type State string

const (
	StateActive    State = "active"
	StateExhausted State = "exhausted"
)

var (
	ErrExhausted     = errors.New("recurrence exhausted")
	ErrAlreadyPushed = errors.New("recurrence already pushed today")
	ErrNotDue        = errors.New("recurrence not due today")
)

// StateOf returns Exhausted once every allowed occurrence has materialized.
// Only an edit that raises Count moves a definition back to Active.
func StateOf(def models.Recurrence) State {
	if def.PushedCount >= def.Count {
		return StateExhausted
	}
	return StateActive
}

// Check explains why def cannot fire at now, or returns nil when it can.
// The returned error wraps ErrExhausted, ErrAlreadyPushed,
// calendar.ErrMalformedSchedule or ErrNotDue.
func Check(def models.Recurrence, now time.Time) error {
	if StateOf(def) == StateExhausted {
		return fmt.Errorf("%w: %d of %d pushed", ErrExhausted, def.PushedCount, def.Count)
	}
	if def.LastPushedAt != nil && calendar.SameDay(*def.LastPushedAt, now) {
		return ErrAlreadyPushed
	}
	if err := calendar.Validate(def.Interval, def.Schedule); err != nil {
		return err
	}
	if !calendar.IsDue(def.Interval, def.Schedule, now) {
		return ErrNotDue
	}
	return nil
}

// CanFire reports whether def should materialize an occurrence at now.
func CanFire(def models.Recurrence, now time.Time) bool {
	return Check(def, now) == nil
}
