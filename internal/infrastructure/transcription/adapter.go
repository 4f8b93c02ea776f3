// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package transcription

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/audioproc"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// FailoverTranscriber tries the primary backend and falls back to the
// secondary on failure. Files below the minimum size are treated as silence
// and skipped without touching either backend.
type FailoverTranscriber struct {
	primary  domain.Transcriber
	fallback domain.Transcriber // may be nil
	minSize  int64
}

// NewFailoverTranscriber wires the local engine as primary and the remote
// backend, when configured, as fallback.
func NewFailoverTranscriber(cfg config.TranscriptionConfig, runner audioproc.Runner) *FailoverTranscriber {
	t := &FailoverTranscriber{
		primary: NewLocalWhisper(cfg, runner),
		minSize: cfg.MinFileSizeBytes,
	}
	if remote := NewRemoteWhisper(cfg); remote != nil {
		t.fallback = remote
	}
	return t
}

// Transcribe converts one audio file to text. A local failure, or a local
// result with no text for a file that passed the size guard, triggers the
// remote fallback; only when every backend fails does the caller see an
// error.
func (t *FailoverTranscriber) Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionOutput, error) {
	stat, err := os.Stat(audioPath)
	if err != nil {
		return nil, domain.NewInternalError("audio file not accessible", err)
	}
	if stat.Size() < t.minSize {
		slog.InfoContext(ctx, "audio file below minimum size, skipping transcription",
			"path", audioPath, "size", stat.Size(), "min_size", t.minSize)
		return &models.TranscriptionOutput{Text: ""}, nil
	}

	out, primaryErr := t.primary.Transcribe(ctx, audioPath)
	if primaryErr == nil && hasText(out) {
		return out, nil
	}

	// A cancelled or expired context is the caller's budget, not a backend
	// fault; retrying remotely would just burn more of it.
	if t.fallback == nil || ctx.Err() != nil {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return out, nil
	}

	if primaryErr != nil {
		slog.WarnContext(ctx, "falling back to remote transcription", logging.ErrKey, primaryErr)
	} else {
		slog.WarnContext(ctx, "local transcription returned no text, falling back to remote",
			"path", audioPath, "size", stat.Size())
	}

	remote, fallbackErr := t.fallback.Transcribe(ctx, audioPath)
	if fallbackErr != nil {
		if primaryErr != nil {
			return nil, domain.NewInternalError("all transcription backends failed", primaryErr, fallbackErr)
		}
		// The local engine did answer, just with nothing. Hand back its
		// empty result instead of escalating the fallback's failure.
		slog.WarnContext(ctx, "remote transcription failed after empty local result",
			logging.ErrKey, fallbackErr)
		return out, nil
	}
	return remote, nil
}

func hasText(out *models.TranscriptionOutput) bool {
	return out != nil && strings.TrimSpace(out.Text) != ""
}
