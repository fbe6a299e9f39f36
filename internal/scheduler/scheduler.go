// Package scheduler runs one pass of the recurring-transaction job over every user.
//
// A pass is retry-safe: each materialization is an idempotent conditional write,
// so a pass that is repeated, overlapped or interrupted never creates a second
// transaction for the same occurrence. Failures stay local to the unit that
// produced them and only show up in the Summary.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/calendar"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/recurrence"
	"spendwise/internal/store"
	"spendwise/internal/trash"
)

// Loader returns the per-user projection a pass iterates over.
type Loader interface {
	LoadRecurrenceProjection(ctx context.Context) ([]store.Projection, error)
}

// Materializer pushes a single occurrence.
type Materializer interface {
	TryMaterialize(ctx context.Context, userID string, def models.Recurrence, now time.Time) (recurrence.Outcome, error)
}

// Sweeper purges old trash for one user.
type Sweeper interface {
	Sweep(ctx context.Context, userID string, now time.Time) (trash.SweepResult, error)
}

// Scheduler drives a pass. Users are processed concurrently up to Workers at a
// time; the recurrences of one user are processed in order.
type Scheduler struct {
	loader  Loader
	engine  Materializer
	sweeper Sweeper
	workers int
	log     zerolog.Logger
	clock   func() time.Time
}

// New creates a scheduler. sweeper may be nil to disable trash cleanup.
func New(loader Loader, engine Materializer, sweeper Sweeper, workers int, log zerolog.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		loader:  loader,
		engine:  engine,
		sweeper: sweeper,
		workers: workers,
		log:     log,
		clock:   time.Now,
	}
}

// RunOnce evaluates every recurrence of every user at now and materializes
// those that are due. The error is non-nil only when the projection cannot be
// loaded or ctx is cancelled before the pass completes; users not reached are
// left untouched and picked up by the next pass.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	c := &collector{s: Summary{RunID: uuid.NewString(), At: now, StartedAt: s.clock()}}
	log := s.log.With().Str("run_id", c.s.RunID).Logger()

	users, err := s.loader.LoadRecurrenceProjection(ctx)
	if err != nil {
		c.s.FinishedAt = s.clock()
		return c.s, fmt.Errorf("failed to load recurrence projection: %w", err)
	}

	log.Info().Int("users", len(users)).Time("now", now).Msg("Starting recurring transactions pass")
	ctx = logger.WithContext(ctx, log)

	var g errgroup.Group
	g.SetLimit(s.workers)
	var cancelled error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		u := u
		g.Go(func() error {
			s.processUser(ctx, log, c, u, now)
			return nil
		})
	}
	_ = g.Wait()
	if cancelled == nil {
		cancelled = ctx.Err()
	}

	sum := c.s
	sum.FinishedAt = s.clock()
	sort.SliceStable(sum.Items, func(i, j int) bool {
		if sum.Items[i].UserID != sum.Items[j].UserID {
			return sum.Items[i].UserID < sum.Items[j].UserID
		}
		return sum.Items[i].RecurrenceID < sum.Items[j].RecurrenceID
	})

	ev := log.Info()
	if sum.Failed > 0 {
		ev = log.Warn()
	}
	ev.Int("users", sum.Users).
		Int("processed", sum.Processed).
		Int("pushed", sum.Pushed).
		Int("skipped", sum.Skipped).
		Int("lost_races", sum.LostRaces).
		Int("malformed", sum.Malformed).
		Int("failed", sum.Failed).
		Int("trash_removed", sum.TrashRemoved).
		Msg("Recurring transactions pass finished")

	if cancelled != nil {
		return sum, fmt.Errorf("pass interrupted: %w", cancelled)
	}
	return sum, nil
}

func (s *Scheduler) processUser(ctx context.Context, log zerolog.Logger, c *collector, u store.Projection, now time.Time) {
	c.add(func(sum *Summary) { sum.Users++ })
	ulog := log.With().Str("user_id", u.UserID).Logger()

	if u.LoadErr != nil {
		ulog.Error().Err(u.LoadErr).Msg("Failed to read user document")
		c.item(ItemResult{UserID: u.UserID, Kind: KindUser, Status: StatusFailed, Error: u.LoadErr.Error()},
			func(sum *Summary) { sum.Failed++ })
		return
	}

	for _, bad := range u.Undecodable {
		ulog.Error().Err(bad.Err).Str("recurrence_id", bad.RecurrenceID).Msg("Failed to read recurrence")
		c.item(ItemResult{UserID: u.UserID, RecurrenceID: bad.RecurrenceID, Kind: KindRecurrence, Status: StatusFailed, Error: bad.Err.Error()},
			func(sum *Summary) { sum.Processed++; sum.Failed++ })
	}

	for _, def := range u.Recurrences {
		if ctx.Err() != nil {
			return
		}
		s.processRecurrence(ctx, ulog, c, u.UserID, def, now)
	}

	if u.AutoCleanTrash && s.sweeper != nil && ctx.Err() == nil {
		s.sweepTrash(ctx, ulog, c, u.UserID, now)
	}
}

func (s *Scheduler) processRecurrence(ctx context.Context, log zerolog.Logger, c *collector, userID string, def models.Recurrence, now time.Time) {
	c.add(func(sum *Summary) { sum.Processed++ })
	rlog := log.With().Str("recurrence_id", def.ID).Logger()

	if err := recurrence.Check(def, now); err != nil {
		if errors.Is(err, calendar.ErrMalformedSchedule) {
			rlog.Warn().Err(err).Str("interval", string(def.Interval)).Msg("Skipping recurrence with malformed schedule")
			c.item(ItemResult{UserID: userID, RecurrenceID: def.ID, Kind: KindRecurrence, Status: StatusMalformed, Error: err.Error()},
				func(sum *Summary) { sum.Malformed++ })
			return
		}
		rlog.Debug().Err(err).Msg("Recurrence not eligible")
		c.add(func(sum *Summary) { sum.Skipped++ })
		return
	}

	var out recurrence.Outcome
	err := guard(func() error {
		var err error
		out, err = s.engine.TryMaterialize(ctx, userID, def, now)
		return err
	})

	switch {
	case err != nil && isIneligible(err):
		c.add(func(sum *Summary) { sum.Skipped++ })
	case err != nil:
		if errors.Is(err, store.ErrNotFound) {
			rlog.Warn().Err(err).Msg("User or recurrence vanished before push")
		} else {
			rlog.Error().Err(err).Msg("Failed to push recurring transaction")
		}
		c.item(ItemResult{UserID: userID, RecurrenceID: def.ID, Kind: KindRecurrence, Status: StatusFailed, Error: err.Error()},
			func(sum *Summary) { sum.Failed++ })
	case out.Pushed:
		c.item(ItemResult{UserID: userID, RecurrenceID: def.ID, Kind: KindRecurrence, Status: StatusPushed},
			func(sum *Summary) { sum.Pushed++ })
	case out.LostRace:
		c.item(ItemResult{UserID: userID, RecurrenceID: def.ID, Kind: KindRecurrence, Status: StatusLostRace},
			func(sum *Summary) { sum.LostRaces++; sum.Skipped++ })
	default:
		c.add(func(sum *Summary) { sum.Skipped++ })
	}
}

func (s *Scheduler) sweepTrash(ctx context.Context, log zerolog.Logger, c *collector, userID string, now time.Time) {
	var res trash.SweepResult
	err := guard(func() error {
		var err error
		res, err = s.sweeper.Sweep(ctx, userID, now)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to clean trash")
		c.item(ItemResult{UserID: userID, Kind: KindTrash, Status: StatusFailed, Error: err.Error()},
			func(sum *Summary) { sum.Failed++ })
		return
	}
	c.add(func(sum *Summary) { sum.TrashSwept++ })
	if res.Removed > 0 {
		c.item(ItemResult{UserID: userID, Kind: KindTrash, Status: StatusSwept, Removed: res.Removed},
			func(sum *Summary) { sum.TrashRemoved += res.Removed })
	}
}

// isIneligible matches the engine refusing a definition that changed state
// between Check and TryMaterialize.
func isIneligible(err error) bool {
	return errors.Is(err, recurrence.ErrNotDue) ||
		errors.Is(err, recurrence.ErrExhausted) ||
		errors.Is(err, recurrence.ErrAlreadyPushed)
}

// guard turns a panic inside fn into an error so one bad record cannot stop a pass.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
