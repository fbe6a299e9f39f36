// Package admin exposes on-demand triggers for the background jobs.
package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"spendwise/internal/dedupe"
	"spendwise/internal/scheduler"
)

// Runner executes one recurring transactions pass.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time) (scheduler.Summary, error)
}

// Deduper repairs duplicate occurrences.
type Deduper interface {
	Run(ctx context.Context) (dedupe.Result, error)
}

// Handler serves the admin endpoints.
type Handler struct {
	runner  Runner
	deduper Deduper
	loc     *time.Location
	apiKey  string
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a handler. An empty apiKey leaves the endpoints open.
func NewHandler(runner Runner, deduper Deduper, loc *time.Location, apiKey string, log zerolog.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		runner:  runner,
		deduper: deduper,
		loc:     loc,
		apiKey:  strings.TrimSpace(apiKey),
		log:     log,
		now:     time.Now,
	}
}

// NewApp builds the fiber app with JSON errors and the admin routes.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	api := app.Group("/api", h.requireKey)
	api.Post("/cron", h.RunCron)
	api.Post("/cron/dedupe", h.RunDedupe)
	api.Get("/cron/dedupe", h.RunDedupe)

	return app
}

func (h *Handler) requireKey(c *fiber.Ctx) error {
	if h.apiKey == "" {
		return c.Next()
	}
	got := strings.TrimSpace(c.Get("X-Admin-Key"))
	if got == "" || got != h.apiKey {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid admin key")
	}
	return c.Next()
}

// RunCron runs one pass at the current time, or at ?at=YYYY-MM-DD when given.
func (h *Handler) RunCron(c *fiber.Ctx) error {
	now := h.now().In(h.loc)
	if at := c.Query("at"); at != "" {
		day, err := time.ParseInLocation("2006-01-02", at, h.loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "at must be YYYY-MM-DD")
		}
		now = day.Add(time.Minute)
	}

	sum, err := h.runner.RunOnce(c.UserContext(), now)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", sum.RunID).Msg("On-demand pass failed")
		if sum.RunID == "" {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to run pass: "+err.Error())
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   err.Error(),
			"summary": sum,
		})
	}
	return c.JSON(sum)
}

// RunDedupe runs the duplicate repair job over every user.
func (h *Handler) RunDedupe(c *fiber.Ctx) error {
	res, err := h.deduper.Run(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("On-demand dedupe failed")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to dedupe: "+err.Error())
	}
	return c.JSON(res)
}
