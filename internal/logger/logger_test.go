package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, "warn")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_UnknownLevelIsInfo(t *testing.T) {
	log := NewWithWriter(&bytes.Buffer{}, "loud")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, "info"))

	l := FromContext(ctx, zerolog.Nop())
	l.Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	fallback := NewWithWriter(&bytes.Buffer{}, "error")
	assert.Equal(t, zerolog.ErrorLevel, FromContext(context.Background(), fallback).GetLevel())
}

func TestCronLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	cl := CronLogger{Log: NewWithWriter(buf, "debug")}

	cl.Info("wake", "now", "2025-03-14")
	cl.Error(errors.New("boom"), "panic", "stack", "...")

	out := buf.String()
	assert.Contains(t, out, `"message":"wake"`)
	assert.Contains(t, out, `"now":"2025-03-14"`)
	assert.Contains(t, out, `"error":"boom"`)
}
