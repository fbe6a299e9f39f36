// Package trash purges old trashed transactions for users opted into auto-clean.
package trash

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"spendwise/internal/logger"
	"spendwise/internal/store"
)

// DefaultRetention is the retention window used when none is configured.
const DefaultRetention = 7 * 24 * time.Hour

// Store is the persistence the sweeper needs.
type Store interface {
	PurgeTrash(ctx context.Context, userID string, cutoff time.Time) (store.TrashPurge, error)
}

// SweepResult reports what one sweep removed.
type SweepResult struct {
	Removed int
	Kept    int
}

// Sweeper removes trashed transactions older than the retention window.
type Sweeper struct {
	store     Store
	retention time.Duration
	log       zerolog.Logger
}

// NewSweeper creates a sweeper. A non-positive retention falls back to DefaultRetention.
func NewSweeper(s Store, retention time.Duration, log zerolog.Logger) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Sweeper{store: s, retention: retention, log: log}
}

// Sweep purges every trashed transaction of userID whose createdAt is older than
// now minus the retention window. Age is measured from the creation of the
// transaction, not from when it was trashed.
//
// The purge is one atomic store update evaluated against the current trash, so
// items trashed or restored concurrently are never lost or resurrected.
func (s *Sweeper) Sweep(ctx context.Context, userID string, now time.Time) (SweepResult, error) {
	res, err := s.store.PurgeTrash(ctx, userID, now.Add(-s.retention))
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to purge trash for user %s: %w", userID, err)
	}

	if res.Removed > 0 {
		log := logger.FromContext(ctx, s.log)
		log.Info().
			Str("user_id", userID).
			Int("removed", res.Removed).
			Int("kept", res.Kept).
			Msg("Old trash purged")
	}
	return SweepResult{Removed: res.Removed, Kept: res.Kept}, nil
}
