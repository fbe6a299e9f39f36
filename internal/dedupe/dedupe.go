// Package dedupe repairs user documents that received more than one transaction
// for the same recurrence occurrence, which older non-atomic job versions could
// produce.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"spendwise/internal/models"
	"spendwise/internal/store"
)

// Store is the persistence the deduper needs.
type Store interface {
	ListUserIDs(ctx context.Context) ([]string, error)
	LoadTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
	RemoveTransactions(ctx context.Context, userID string, remove, keep []string) (int, error)
}

// Result aggregates one dedupe run.
type Result struct {
	Users   int `json:"users"`
	Changed int `json:"changed"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// Deduper removes duplicate occurrences user by user.
type Deduper struct {
	store Store
	loc   *time.Location
	log   zerolog.Logger
}

// New creates a deduper. Occurrence dates are compared in loc (UTC if nil).
func New(s Store, loc *time.Location, log zerolog.Logger) *Deduper {
	if loc == nil {
		loc = time.UTC
	}
	return &Deduper{store: s, loc: loc, log: log}
}

// Run dedupes every user. A failing user is logged and counted; the run continues.
func (d *Deduper) Run(ctx context.Context) (Result, error) {
	ids, err := d.store.ListUserIDs(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list users: %w", err)
	}

	var res Result
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("dedupe interrupted: %w", err)
		}
		res.Users++

		removed, err := d.User(ctx, id)
		if err != nil {
			res.Failed++
			ev := d.log.Error()
			if errors.Is(err, store.ErrConflict) {
				ev = d.log.Warn()
			}
			ev.Err(err).Str("user_id", id).Msg("Failed to dedupe transactions")
			continue
		}
		if removed > 0 {
			res.Changed++
			res.Removed += removed
		}
	}

	d.log.Info().
		Int("users", res.Users).
		Int("changed", res.Changed).
		Int("removed", res.Removed).
		Int("failed", res.Failed).
		Msg("Transaction deduplication complete")
	return res, nil
}

// User dedupes one user's transactions and returns how many were removed.
//
// Only the duplicate ids are pulled, and only while every kept copy is still
// present, so transactions written or deleted since the load are left alone.
func (d *Deduper) User(ctx context.Context, userID string) (int, error) {
	txs, err := d.store.LoadTransactions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load transactions for user %s: %w", userID, err)
	}

	remove, keep := Duplicates(txs, d.loc)
	if len(remove) == 0 {
		return 0, nil
	}

	removed, err := d.store.RemoveTransactions(ctx, userID, remove, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to remove duplicate transactions for user %s: %w", userID, err)
	}
	if removed > 0 {
		d.log.Info().Str("user_id", userID).Int("removed", removed).Msg("Removed duplicate transactions")
	}
	return removed, nil
}

// Duplicates groups transactions by (reference id, calendar date in loc). For each
// group with more than one entry it returns the first entry's id in keep and the
// ids of the rest in remove. Transactions without a reference id are never grouped.
func Duplicates(txs []models.Transaction, loc *time.Location) (remove, keep []string) {
	type key struct {
		ref  string
		date string
	}
	first := make(map[key]string, len(txs))
	kept := make(map[key]bool)
	for _, tx := range txs {
		if tx.ReferenceID == "" {
			continue
		}
		k := key{ref: tx.ReferenceID, date: tx.CreatedAt.In(loc).Format("2006-01-02")}
		id, seen := first[k]
		if !seen {
			first[k] = tx.ID
			continue
		}
		if !kept[k] {
			kept[k] = true
			keep = append(keep, id)
		}
		remove = append(remove, tx.ID)
	}
	return remove, keep
}
