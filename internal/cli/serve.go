package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spendwise/internal/admin"
	"spendwise/internal/notify"
	"spendwise/internal/trigger"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the jobs on CRON_SCHEDULE and serve the admin endpoints",
		Long: `Start the cron trigger and the admin HTTP server.

Endpoints:
  GET  /healthz
  POST /api/cron          run one pass now (?at=YYYY-MM-DD to backfill a day)
  POST /api/cron/dedupe   remove duplicate occurrences
  GET  /api/cron/dedupe`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, rootOpts)
		},
	}
}

func serve(cmd *cobra.Command, opts *RootOptions) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	trOpts := []trigger.Option{trigger.WithTimeout(a.cfg.PassTimeout)}
	if a.cfg.ReportsEnabled() {
		rep, err := notify.NewTelegram(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.log)
		if err != nil {
			a.log.Error().Err(err).Msg("Run reports disabled")
		} else {
			trOpts = append(trOpts, trigger.WithReporter(rep))
		}
	}

	tr, err := trigger.New(a.cfg.CronSchedule, a.cfg.Location, a.scheduler, a.log, trOpts...)
	if err != nil {
		return err
	}
	tr.Start()

	handler := admin.NewHandler(a.scheduler, a.deduper, a.cfg.Location, a.cfg.AdminAPIKey, a.log)
	srv := admin.NewApp(handler)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.AdminAddr).Msg("Admin server listening")
		errCh <- srv.Listen(a.cfg.AdminAddr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info().Msg("Shutting down...")
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("admin server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("Admin server shutdown failed")
	}
	if err := tr.Stop(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("Cron trigger did not stop in time")
	}
	return serveErr
}
