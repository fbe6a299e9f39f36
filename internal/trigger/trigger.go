// Package trigger fires scheduler passes on a cron schedule.
package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"spendwise/internal/logger"
	"spendwise/internal/scheduler"
)

// Runner executes one pass.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) (scheduler.Summary, error)
}

// Reporter receives the summary of every triggered pass.
type Reporter interface {
	Report(ctx context.Context, sum scheduler.Summary) error
}

// Trigger owns the cron instance. A tick that fires while the previous pass is
// still running is skipped.
type Trigger struct {
	cron     *cron.Cron
	runner   Runner
	reporter Reporter
	loc      *time.Location
	timeout  time.Duration
	log      zerolog.Logger
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithReporter sends each summary to r after the pass.
func WithReporter(r Reporter) Option {
	return func(t *Trigger) { t.reporter = r }
}

// WithTimeout bounds a single pass.
func WithTimeout(d time.Duration) Option {
	return func(t *Trigger) { t.timeout = d }
}

// New registers runner on spec, evaluated in loc.
func New(spec string, loc *time.Location, runner Runner, log zerolog.Logger, opts ...Option) (*Trigger, error) {
	if loc == nil {
		loc = time.UTC
	}
	t := &Trigger{runner: runner, loc: loc, timeout: time.Hour, log: log}
	for _, opt := range opts {
		opt(t)
	}

	cl := logger.CronLogger{Log: log}
	t.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := t.cron.AddFunc(spec, t.Fire); err != nil {
		return nil, fmt.Errorf("failed to add cron job %q: %w", spec, err)
	}
	return t, nil
}

// Start begins firing in the background.
func (t *Trigger) Start() {
	t.cron.Start()
	t.log.Info().Str("location", t.loc.String()).Time("next", t.Next()).Msg("Cron trigger started")
}

// Stop halts the schedule and waits for a running pass to finish or ctx to expire.
func (t *Trigger) Stop(ctx context.Context) error {
	done := t.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron stop: %w", ctx.Err())
	}
}

// Next returns the time of the next scheduled pass.
func (t *Trigger) Next() time.Time {
	entries := t.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Fire runs one pass now and reports it.
func (t *Trigger) Fire() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	now := time.Now().In(t.loc)
	t.log.Info().Time("now", now).Msg("Executing recurring transactions pass...")

	sum, err := t.runner.RunOnce(ctx, now)
	if err != nil {
		t.log.Error().Err(err).Str("run_id", sum.RunID).Msg("Recurring transactions pass failed")
	}
	if t.reporter == nil || sum.RunID == "" {
		return
	}
	if err := t.reporter.Report(ctx, sum); err != nil {
		t.log.Error().Err(err).Str("run_id", sum.RunID).Msg("Failed to send run report")
	}
}
