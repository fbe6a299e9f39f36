// Package memstore is an in-memory store.UserStore. Writes are serialized by a
// mutex and use the same guards as the database filters, which makes it suitable
// for exercising concurrent job runs without a server.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/store"
)

// Store holds user documents keyed by user id.
type Store struct {
	mu    sync.Mutex
	users map[string]*models.User
}

// New creates a store seeded with users.
func New(users ...models.User) *Store {
	s := &Store{users: make(map[string]*models.User)}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

// Put inserts or replaces a user document.
func (s *Store) Put(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneUser(u)
	s.users[u.UserID] = &c
}

// Get returns a copy of the user document.
func (s *Store) Get(userID string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, false
	}
	return cloneUser(*u), true
}

// Delete removes a user document.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
}

func (s *Store) LoadRecurrenceProjection(ctx context.Context) ([]store.Projection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Projection, 0, len(s.users))
	for _, id := range s.sortedIDs() {
		u := s.users[id]
		out = append(out, store.Projection{
			UserID:         u.UserID,
			Recurrences:    append([]models.Recurrence(nil), u.Recurrences...),
			AutoCleanTrash: u.Settings.AutoCleanEnabled(),
		})
	}
	return out, nil
}

func (s *Store) ConditionalPushOccurrence(ctx context.Context, occ store.Occurrence) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[occ.UserID]
	if !ok {
		return false, fmt.Errorf("user %s: %w", occ.UserID, store.ErrNotFound)
	}
	for i := range u.Recurrences {
		rec := &u.Recurrences[i]
		if rec.ID != occ.RecurrenceID {
			continue
		}
		if !store.Guard(*rec, occ) {
			return false, nil
		}
		at := occ.PushedAt
		rec.PushedCount++
		rec.LastPushedAt = &at
		u.Transactions = append(u.Transactions, occ.Transaction)
		u.Notifications = append(u.Notifications, occ.Notification)
		return true, nil
	}
	return false, fmt.Errorf("recurrence %s of user %s: %w", occ.RecurrenceID, occ.UserID, store.ErrNotFound)
}

func (s *Store) PurgeTrash(ctx context.Context, userID string, cutoff time.Time) (store.TrashPurge, error) {
	if err := ctx.Err(); err != nil {
		return store.TrashPurge{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.TrashPurge{}, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}

	kept := make([]models.TrashedTransaction, 0, len(u.Trash))
	for _, item := range u.Trash {
		if !store.TrashExpired(item, cutoff) {
			kept = append(kept, item)
		}
	}
	res := store.TrashPurge{Removed: len(u.Trash) - len(kept), Kept: len(kept)}
	if res.Removed > 0 {
		u.Trash = kept
	}
	return res, nil
}

func (s *Store) LoadTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	return append([]models.Transaction(nil), u.Transactions...), nil
}

func (s *Store) RemoveTransactions(ctx context.Context, userID string, remove, keep []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}

	present := make(map[string]bool, len(u.Transactions))
	for _, tx := range u.Transactions {
		present[tx.ID] = true
	}
	for _, id := range keep {
		if !present[id] {
			return 0, fmt.Errorf("transaction %s of user %s: %w", id, userID, store.ErrConflict)
		}
	}

	drop := make(map[string]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	kept := make([]models.Transaction, 0, len(u.Transactions))
	for _, tx := range u.Transactions {
		if !drop[tx.ID] {
			kept = append(kept, tx)
		}
	}
	removed := len(u.Transactions) - len(kept)
	u.Transactions = kept
	return removed, nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedIDs(), nil
}

func (s *Store) sortedIDs() []string {
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneUser(u models.User) models.User {
	c := u
	c.Transactions = append([]models.Transaction(nil), u.Transactions...)
	c.Trash = append([]models.TrashedTransaction(nil), u.Trash...)
	c.Notifications = append([]models.Notification(nil), u.Notifications...)
	c.Recurrences = make([]models.Recurrence, len(u.Recurrences))
	for i, r := range u.Recurrences {
		if r.LastPushedAt != nil {
			at := *r.LastPushedAt
			r.LastPushedAt = &at
		}
		c.Recurrences[i] = r
	}
	return c
}
