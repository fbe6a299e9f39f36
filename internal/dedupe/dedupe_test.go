package dedupe

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

func tx(id, ref string, at time.Time) models.Transaction {
	return models.Transaction{ID: id, ReferenceID: ref, CreatedAt: at}
}

func ids(txs []models.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestDuplicates(t *testing.T) {
	d1 := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	d1Later := time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 15, 0, 1, 0, 0, time.UTC)

	txs := []models.Transaction{
		tx("a", "r1", d1),
		tx("manual-1", "", d1),
		tx("b", "r1", d1Later),
		tx("c", "r2", d1),
		tx("d", "r1", d2),
		tx("manual-2", "", d1),
		tx("e", "r1", d1),
	}

	remove, keep := Duplicates(txs, time.UTC)
	assert.Equal(t, []string{"b", "e"}, remove)
	assert.Equal(t, []string{"a"}, keep)
}

func TestDuplicates_None(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	remove, keep := Duplicates([]models.Transaction{tx("a", "r1", at), tx("m", "", at), tx("n", "", at)}, time.UTC)
	assert.Empty(t, remove)
	assert.Empty(t, keep)
}

func TestDuplicates_DateInLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 13th and 01:00 UTC on the 14th are both the 14th in Tokyo.
	txs := []models.Transaction{
		tx("a", "r1", time.Date(2025, 3, 13, 20, 0, 0, 0, time.UTC)),
		tx("b", "r1", time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)),
	}

	remove, _ := Duplicates(txs, time.UTC)
	assert.Empty(t, remove)

	remove, keep := Duplicates(txs, tokyo)
	assert.Equal(t, []string{"b"}, remove)
	assert.Equal(t, []string{"a"}, keep)
}

func TestRun(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	s := memstore.New(
		models.User{UserID: "dup", Transactions: []models.Transaction{tx("a", "r1", at), tx("b", "r1", at), tx("c", "r1", at)}},
		models.User{UserID: "clean", Transactions: []models.Transaction{tx("x", "r1", at)}},
	)

	res, err := New(s, nil, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Changed: 1, Removed: 2}, res)

	u, _ := s.Get("dup")
	assert.Equal(t, []string{"a"}, ids(u.Transactions))
}

// interleaved rewrites the user's transactions between the load and the removal,
// keeping the array length the same.
type interleaved struct {
	*memstore.Store
	swap func(u *models.User)
}

func (s *interleaved) RemoveTransactions(ctx context.Context, userID string, remove, keep []string) (int, error) {
	u, _ := s.Get(userID)
	s.swap(&u)
	s.Put(u)
	return s.Store.RemoveTransactions(ctx, userID, remove, keep)
}

func TestUser_ConcurrentWriteSurvives(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	base := memstore.New(models.User{UserID: "u1", Transactions: []models.Transaction{
		tx("a", "r1", at), tx("b", "r1", at), tx("m", "", at),
	}})
	// The manual transaction is deleted and a new one added before the removal runs.
	s := &interleaved{Store: base, swap: func(u *models.User) {
		u.Transactions[2] = tx("fresh", "", at)
	}}

	removed, err := New(s, time.UTC, zerolog.Nop()).User(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	u, _ := base.Get("u1")
	assert.Equal(t, []string{"a", "fresh"}, ids(u.Transactions))
}

func TestUser_KeeperDeletedIsConflict(t *testing.T) {
	at := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	base := memstore.New(models.User{UserID: "u1", Transactions: []models.Transaction{
		tx("a", "r1", at), tx("b", "r1", at),
	}})
	// The copy that would be kept is replaced concurrently, so removing the other
	// copy would leave the occurrence with no transaction at all.
	s := &interleaved{Store: base, swap: func(u *models.User) {
		u.Transactions[0] = tx("other", "", at)
	}}

	_, err := New(s, time.UTC, zerolog.Nop()).User(context.Background(), "u1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConflict))

	u, _ := base.Get("u1")
	assert.Equal(t, []string{"other", "b"}, ids(u.Transactions))
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mocks.NewMockUserStore(ctrl)

	at := time.Date(2025, 3, 14, 0, 1, 0, 0, time.UTC)
	dups := []models.Transaction{tx("a", "r1", at), tx("b", "r1", at)}

	m.EXPECT().ListUserIDs(gomock.Any()).Return([]string{"u1", "u2", "u3"}, nil)
	m.EXPECT().LoadTransactions(gomock.Any(), "u1").Return(nil, errors.New("timeout"))
	m.EXPECT().LoadTransactions(gomock.Any(), "u2").Return(dups, nil)
	m.EXPECT().RemoveTransactions(gomock.Any(), "u2", []string{"b"}, []string{"a"}).Return(0, store.ErrConflict)
	m.EXPECT().LoadTransactions(gomock.Any(), "u3").Return(dups, nil)
	m.EXPECT().RemoveTransactions(gomock.Any(), "u3", []string{"b"}, []string{"a"}).Return(1, nil)

	res, err := New(m, time.UTC, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 3, Changed: 1, Removed: 1, Failed: 2}, res)
}

func TestRun_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	m := mocks.NewMockUserStore(ctrl)
	m.EXPECT().ListUserIDs(gomock.Any()).Return(nil, errors.New("no reachable servers"))

	_, err := New(m, nil, zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
}
