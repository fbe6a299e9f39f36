package trash

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/models"
	"spendwise/internal/store"
	"spendwise/internal/store/memstore"
	"spendwise/internal/store/mocks"
)

func trashed(id string, created, deleted time.Time) models.TrashedTransaction {
	return models.TrashedTransaction{
		Transaction: models.Transaction{ID: id, Amount: 10, CreatedAt: created},
		DeletedAt:   deleted,
	}
}

func trashIDs(s *memstore.Store, userID string) []string {
	u, _ := s.Get(userID)
	ids := []string{}
	for _, item := range u.Trash {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestSweep_AgeMeasuredFromCreatedAt(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	s := memstore.New(models.User{
		UserID: "u1",
		Trash: []models.TrashedTransaction{
			// Created ten days ago, trashed an hour ago: purged.
			trashed("old", now.AddDate(0, 0, -10), now.Add(-time.Hour)),
			// Created two days ago: kept.
			trashed("recent", now.AddDate(0, 0, -2), now.Add(-time.Hour)),
			trashed("edge", now.Add(-DefaultRetention), now.Add(-time.Hour)),
		},
	})

	res, err := NewSweeper(s, 0, zerolog.Nop()).Sweep(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Removed: 1, Kept: 2}, res)
	assert.Equal(t, []string{"recent", "edge"}, trashIDs(s, "u1"))
}

func TestSweep_PassesCutoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mocks.NewMockUserStore(ctrl)

	now := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	m.EXPECT().PurgeTrash(gomock.Any(), "u1", now.Add(-24*time.Hour)).Return(store.TrashPurge{Kept: 1}, nil)

	res, err := NewSweeper(m, 24*time.Hour, zerolog.Nop()).Sweep(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Kept: 1}, res)
}

// restoreAndTrash swaps one trashed item for another, keeping the trash length,
// right before the purge reaches the store.
type restoreAndTrash struct {
	*memstore.Store
	now time.Time
}

func (r *restoreAndTrash) PurgeTrash(ctx context.Context, userID string, cutoff time.Time) (store.TrashPurge, error) {
	u, _ := r.Get(userID)
	u.Trash = []models.TrashedTransaction{
		u.Trash[0],
		trashed("fresh", r.now.AddDate(0, 0, -1), r.now),
	}
	r.Put(u)
	return r.Store.PurgeTrash(ctx, userID, cutoff)
}

func TestSweep_ConcurrentTrashChangeIsPreserved(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	s := memstore.New(models.User{
		UserID: "u1",
		Trash: []models.TrashedTransaction{
			trashed("old", now.AddDate(0, 0, -30), now.AddDate(0, 0, -2)),
			trashed("restored", now.AddDate(0, 0, -1), now.AddDate(0, 0, -1)),
		},
	})

	res, err := NewSweeper(&restoreAndTrash{Store: s, now: now}, 0, zerolog.Nop()).Sweep(context.Background(), "u1", now)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Removed: 1, Kept: 1}, res)
	assert.Equal(t, []string{"fresh"}, trashIDs(s, "u1"))
}

func TestSweep_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mocks.NewMockUserStore(ctrl)
	m.EXPECT().PurgeTrash(gomock.Any(), "u1", gomock.Any()).Return(store.TrashPurge{}, store.ErrNotFound)

	_, err := NewSweeper(m, 0, zerolog.Nop()).Sweep(context.Background(), "u1", time.Now())
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
