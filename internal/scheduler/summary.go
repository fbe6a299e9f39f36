package scheduler

import (
	"sync"
	"time"
)

// ItemKind says which job produced an ItemResult.
type ItemKind string

const (
	KindRecurrence ItemKind = "recurrence"
	KindTrash      ItemKind = "trash"
	// KindUser marks a user document that could not be read at all.
	KindUser ItemKind = "user"
)

// ItemStatus is the outcome of one (user, recurrence) or (user, trash) unit.
type ItemStatus string

const (
	StatusPushed    ItemStatus = "pushed"
	StatusLostRace  ItemStatus = "lost_race"
	StatusMalformed ItemStatus = "malformed"
	StatusFailed    ItemStatus = "failed"
	StatusSwept     ItemStatus = "swept"
)

// ItemResult records a unit whose outcome is worth reporting. Units that were
// simply not due are only counted.
type ItemResult struct {
	UserID       string     `json:"userId"`
	RecurrenceID string     `json:"recurrenceId,omitempty"`
	Kind         ItemKind   `json:"kind"`
	Status       ItemStatus `json:"status"`
	Removed      int        `json:"removed,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Summary aggregates one RunOnce pass.
type Summary struct {
	RunID string `json:"runId"`
	// At is the logical time the pass evaluated recurrences against.
	At         time.Time `json:"at"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Users     int `json:"users"`
	Processed int `json:"processed"`
	Pushed    int `json:"pushed"`
	Skipped   int `json:"skipped"`
	LostRaces int `json:"lostRaces"`
	Malformed int `json:"malformed"`
	Failed    int `json:"failed"`

	TrashSwept   int `json:"trashSwept"`
	TrashRemoved int `json:"trashRemoved"`

	Items []ItemResult `json:"items,omitempty"`
}

// Duration returns how long the pass took.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// collector accumulates results from concurrent user workers.
type collector struct {
	mu sync.Mutex
	s  Summary
}

func (c *collector) add(fn func(s *Summary)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.s)
}

func (c *collector) item(r ItemResult, fn func(s *Summary)) {
	c.add(func(s *Summary) {
		s.Items = append(s.Items, r)
		if fn != nil {
			fn(s)
		}
	})
}
