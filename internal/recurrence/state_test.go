package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spendwise/internal/calendar"
	"spendwise/internal/models"
)

func TestCheck(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	earlierToday := time.Date(2025, 3, 14, 0, 0, 30, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		def     models.Recurrence
		wantErr error
	}{
		{"fresh daily", models.Recurrence{Interval: models.IntervalDaily, Count: 3}, nil},
		{"pushed yesterday", models.Recurrence{Interval: models.IntervalDaily, Count: 3, PushedCount: 1, LastPushedAt: &yesterday}, nil},
		{"pushed earlier today", models.Recurrence{Interval: models.IntervalDaily, Count: 3, PushedCount: 1, LastPushedAt: &earlierToday}, ErrAlreadyPushed},
		{"exhausted", models.Recurrence{Interval: models.IntervalDaily, Count: 3, PushedCount: 3, LastPushedAt: &yesterday}, ErrExhausted},
		{"zero count is exhausted", models.Recurrence{Interval: models.IntervalDaily}, ErrExhausted},
		{"wrong weekday", models.Recurrence{Interval: models.IntervalWeekly, Schedule: models.Schedule{Weekday: "Monday"}, Count: 3}, ErrNotDue},
		{"malformed", models.Recurrence{Interval: models.IntervalMonthly, Count: 3}, calendar.ErrMalformedSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.def, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, CanFire(tt.def, now))
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.False(t, CanFire(tt.def, now))
		})
	}
}

func TestCheck_SameDayUsesNowLocation(t *testing.T) {
	ny := time.FixedZone("EST", -5*60*60)
	// 03:00 UTC on the 14th is 22:00 on the 13th in New York.
	pushed := time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 14, 0, 5, 0, 0, ny)

	def := models.Recurrence{Interval: models.IntervalDaily, Count: 5, PushedCount: 1, LastPushedAt: &pushed}
	assert.True(t, CanFire(def, now))
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateActive, StateOf(models.Recurrence{Count: 2, PushedCount: 1}))
	assert.Equal(t, StateExhausted, StateOf(models.Recurrence{Count: 2, PushedCount: 2}))
	// Raising the count reactivates the definition.
	assert.Equal(t, StateActive, StateOf(models.Recurrence{Count: 3, PushedCount: 2}))
}
