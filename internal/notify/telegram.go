// Package notify delivers run reports to an operator chat.
package notify

import (
	"bytes"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"spendwise/internal/report"
	"spendwise/internal/scheduler"
)

// Sender is the part of *tgbotapi.BotAPI the reporter uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Reporter sends pass summaries to a Telegram chat.
type Reporter struct {
	bot    Sender
	chatID int64
	log    zerolog.Logger
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64, log zerolog.Logger) (*Reporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	bot.Debug = false
	log.Info().Str("bot", bot.Self.UserName).Msg("Telegram reporter ready")
	return NewReporter(bot, chatID, log), nil
}

// NewReporter wraps an existing sender.
func NewReporter(bot Sender, chatID int64, log zerolog.Logger) *Reporter {
	return &Reporter{bot: bot, chatID: chatID, log: log}
}

// Report sends the summary text, and the item CSV when anything failed.
// A failed CSV upload is logged and does not fail the report.
func (r *Reporter) Report(ctx context.Context, sum scheduler.Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(r.chatID, report.FormatMarkdown(sum))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send run summary: %w", err)
	}

	if sum.Failed == 0 {
		return nil
	}

	var buffer bytes.Buffer
	if err := report.GenerateRunCSV(sum, &buffer); err != nil {
		r.log.Error().Err(err).Msg("Failed to generate run CSV")
		return nil
	}

	document := tgbotapi.NewDocument(r.chatID, tgbotapi.FileBytes{
		Name:  report.FileName(sum),
		Bytes: buffer.Bytes(),
	})
	document.Caption = fmt.Sprintf("%d failed of %d processed", sum.Failed, sum.Processed)

	if _, err := r.bot.Send(document); err != nil {
		r.log.Error().Err(err).Str("run_id", sum.RunID).Msg("Failed to send run CSV")
	}
	return nil
}
