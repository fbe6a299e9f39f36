// Package store defines the persistence contract the background jobs consume.
//
// Every mutation is scoped to one user document. Writes that depend on
// previously read state carry the expected prior state and only apply when it
// still holds, so concurrent or repeated job runs never need a separate lock.
package store

import (
	"context"
	"errors"
	"time"

	"spendwise/internal/models"
)

var (
	// ErrNotFound means the user, or the recurrence inside it, no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a guarded write found the document changed since it was read.
	ErrConflict = errors.New("conflict: document changed since read")
)

// Projection is the minimal per-user view the scheduler iterates over.
type Projection struct {
	UserID         string
	Recurrences    []models.Recurrence
	AutoCleanTrash bool

	// LoadErr is set when the user document could not be read at all. Such a
	// user carries no recurrences and is reported as failed.
	LoadErr error
	// Undecodable lists recurrences that could not be read. Their siblings in
	// Recurrences are still processed.
	Undecodable []DecodeFailure
}

// DecodeFailure is one recurrence element that failed to decode.
type DecodeFailure struct {
	RecurrenceID string
	Err          error
}

// TrashPurge reports the effect of one PurgeTrash call.
type TrashPurge struct {
	Removed int
	Kept    int
}

// Occurrence describes one conditional push. It applies only if the recurrence
// still has PushedCount == ExpectedPushedCount, is not exhausted, and was last
// pushed strictly before PushedBefore (or never).
type Occurrence struct {
	UserID              string
	RecurrenceID        string
	ExpectedPushedCount int
	PushedBefore        time.Time
	PushedAt            time.Time
	Transaction         models.Transaction
	Notification        models.Notification
}

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go UserStore

// UserStore is implemented by the Mongo repository and by memstore.
type UserStore interface {
	// LoadRecurrenceProjection returns every user with its recurrences and trash setting.
	LoadRecurrenceProjection(ctx context.Context) ([]Projection, error)
	// ConditionalPushOccurrence atomically advances the recurrence progress and appends
	// the transaction and notification. applied is false when the guard did not hold.
	// ErrNotFound is returned when the user or recurrence is gone.
	ConditionalPushOccurrence(ctx context.Context, occ Occurrence) (applied bool, err error)
	// PurgeTrash removes, in one atomic update, every trashed item created before cutoff.
	// Items without a creation time are kept.
	PurgeTrash(ctx context.Context, userID string, cutoff time.Time) (TrashPurge, error)
	// LoadTransactions returns the user's active transactions.
	LoadTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	// RemoveTransactions atomically removes the transactions with ids in remove,
	// provided every id in keep is still present. Otherwise nothing changes and
	// ErrConflict is returned. The result is the number of entries removed.
	RemoveTransactions(ctx context.Context, userID string, remove, keep []string) (int, error)
	// ListUserIDs returns every user id.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Guard reports whether occ may be applied to rec. Implementations use it (or an
// equivalent datastore filter) as the compare-and-swap condition.
func Guard(rec models.Recurrence, occ Occurrence) bool {
	if rec.PushedCount != occ.ExpectedPushedCount || rec.PushedCount >= rec.Count {
		return false
	}
	return rec.LastPushedAt == nil || rec.LastPushedAt.Before(occ.PushedBefore)
}

// TrashExpired reports whether item was created before cutoff.
func TrashExpired(item models.TrashedTransaction, cutoff time.Time) bool {
	return !item.CreatedAt.IsZero() && item.CreatedAt.Before(cutoff)
}
