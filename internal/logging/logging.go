// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package logging configures structured logging for the audio intake service.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type ctxKey string

// ErrKey is the attribute key used for errors in log records.
const ErrKey = "error"

const (
	slogFields ctxKey = "slog_fields"

	// Log field for critical errors that should alert the on-call team.
	priorityCritical = "critical"
)

// contextHandler wraps a slog.Handler and injects attributes carried in the
// context into every record.
type contextHandler struct {
	slog.Handler
}

// Handle adds contextual attributes to the Record before calling the underlying handler
func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, v := range attrs {
			r.AddAttrs(v)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// AppendCtx adds an slog attribute to the provided context so that it will be
// included in any Record created with such context
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if v, ok := parent.Value(slogFields).([]slog.Attr); ok {
		v = append(v, attr)
		return context.WithValue(parent, slogFields, v)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}

// InitStructuredLog sets the process-wide structured log behavior. The level
// argument takes precedence; when empty, LOG_LEVEL from the environment is
// used, defaulting to info.
func InitStructuredLog(level string) slog.Handler {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	logOptions := &slog.HandlerOptions{}
	switch level {
	case "debug":
		logOptions.Level = slog.LevelDebug
	case "warn":
		logOptions.Level = slog.LevelWarn
	case "error":
		logOptions.Level = slog.LevelError
	default:
		logOptions.Level = slog.LevelInfo
	}

	addSource := os.Getenv("LOG_ADD_SOURCE")
	logOptions.AddSource = addSource == "true" || addSource == "t" || addSource == "1"

	h := slog.NewJSONHandler(os.Stdout, logOptions)
	slog.SetDefault(slog.New(contextHandler{h}))

	slog.Info("log config",
		"logLevel", logOptions.Level,
		"addSource", logOptions.AddSource,
	)

	return h
}

// Priority creates a slog.Attr for error priority classification
func Priority(level string) slog.Attr {
	return slog.String("priority", level)
}

// PriorityCritical marks a log record as one that should be escalated to the
// team, e.g. repeated diarization failures.
func PriorityCritical() slog.Attr {
	return Priority(priorityCritical)
}
