package recurrence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"spendwise/internal/calendar"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/store"
)

const (
	// NotificationHeader is shown to the user for every materialized occurrence.
	NotificationHeader = "Recurring Transaction Added!"
	// StatusDone is the status given to materialized transactions.
	StatusDone = "Done"
)

// Pusher applies a conditional occurrence push against the owning user document.
type Pusher interface {
	ConditionalPushOccurrence(ctx context.Context, occ store.Occurrence) (bool, error)
}

// Outcome is the result of one TryMaterialize call.
type Outcome struct {
	Pushed bool
	// LostRace is set when the guarded write did not apply because another run
	// already pushed this occurrence. It is not an error.
	LostRace    bool
	Transaction models.Transaction
}

// Engine materializes single occurrences.
type Engine struct {
	store Pusher
	log   zerolog.Logger
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the uuid generator used for new records.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine writing through s.
func NewEngine(s Pusher, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{store: s, log: log, newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TryMaterialize pushes one occurrence of def for userID when def can fire at now.
//
// The precondition is checked against def first, then enforced again by the
// store as a single conditional write, so any number of overlapping calls for
// the same definition and day produce at most one transaction.
func (e *Engine) TryMaterialize(ctx context.Context, userID string, def models.Recurrence, now time.Time) (Outcome, error) {
	if err := Check(def, now); err != nil {
		return Outcome{}, err
	}

	tx := NewTransaction(def, e.newID(), now)
	occ := store.Occurrence{
		UserID:              userID,
		RecurrenceID:        def.ID,
		ExpectedPushedCount: def.PushedCount,
		PushedBefore:        calendar.StartOfDay(now),
		PushedAt:            now,
		Transaction:         tx,
		Notification:        NewNotification(tx, e.newID(), now),
	}

	applied, err := e.store.ConditionalPushOccurrence(ctx, occ)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to push occurrence of %s for user %s: %w", def.ID, userID, err)
	}
	log := logger.FromContext(ctx, e.log)
	if !applied {
		log.Debug().
			Str("user_id", userID).
			Str("recurrence_id", def.ID).
			Msg("Occurrence already pushed by another run")
		return Outcome{LostRace: true}, nil
	}

	after := def
	after.PushedCount++
	log.Info().
		Str("user_id", userID).
		Str("recurrence_id", def.ID).
		Str("transaction_id", tx.ID).
		Int("pushed_count", after.PushedCount).
		Int("remaining", after.Remaining()).
		Msg("Recurring transaction pushed")

	return Outcome{Pushed: true, Transaction: tx}, nil
}

// NewTransaction builds the concrete transaction for an occurrence of def.
func NewTransaction(def models.Recurrence, id string, now time.Time) models.Transaction {
	var people *models.People
	if def.People != nil {
		p := *def.People
		people = &p
	}
	return models.Transaction{
		ID:                     id,
		Amount:                 def.Amount,
		Note:                   def.Note,
		Status:                 StatusDone,
		Category:               def.Category,
		People:                 people,
		Image:                  def.Image,
		CreatedAt:              now,
		PushedIntoTransactions: true,
		ReferenceID:            def.ID,
	}
}

// NewNotification builds the notification embedding tx.
func NewNotification(tx models.Transaction, id string, now time.Time) models.Notification {
	return models.Notification{
		ID:          id,
		Header:      NotificationHeader,
		Type:        models.NotificationTypeRecurring,
		Read:        false,
		Transaction: tx,
		CreatedAt:   now,
	}
}
