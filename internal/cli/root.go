// Package cli wires configuration, storage and jobs into the spendwise commands.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/dedupe"
	"spendwise/internal/logger"
	"spendwise/internal/recurrence"
	"spendwise/internal/scheduler"
	"spendwise/internal/store"
	"spendwise/internal/trash"
)

// StoreFactory opens the user store. The returned func releases it.
type StoreFactory func(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.UserStore, func(context.Context) error, error)

// RootOptions holds global flags and the overridable dependencies of all commands.
type RootOptions struct {
	LogLevel string

	// LoadConfig defaults to config.Load.
	LoadConfig func() (*config.Config, error)
	// OpenStore defaults to a MongoDB connection.
	OpenStore StoreFactory
}

// NewRootCommand creates the root command for the spendwise CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spendwise",
		Short: "Spendwise background jobs",
		Long:  "Materializes recurring transactions, cleans trash and repairs duplicate occurrences.",
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDedupeCommand(opts))

	return cmd
}

// app is everything a command needs once configuration and storage are ready.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	store     store.UserStore
	scheduler *scheduler.Scheduler
	deduper   *dedupe.Deduper
	close     func(context.Context) error
}

func (o *RootOptions) open(ctx context.Context) (*app, error) {
	load := o.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	log := logger.New(level)

	openStore := o.OpenStore
	if openStore == nil {
		openStore = openMongo
	}
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	sweeper := trash.NewSweeper(st, cfg.TrashRetention, log)
	engine := recurrence.NewEngine(st, log)

	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		scheduler: scheduler.New(st, engine, sweeper, cfg.Workers, log),
		deduper:   dedupe.New(st, cfg.Location, log),
		close:     closeStore,
	}, nil
}

func (a *app) shutdown(ctx context.Context) {
	if a.close == nil {
		return
	}
	if err := a.close(ctx); err != nil {
		a.log.Error().Err(err).Msg("Error closing store")
	}
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.UserStore, func(context.Context) error, error) {
	db, err := database.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.UsersCollection, log)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not ensure indexes")
	}
	return db, db.Close, nil
}
