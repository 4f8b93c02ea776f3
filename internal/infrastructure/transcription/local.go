// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package transcription converts audio to text. The primary backend is a
// local faster-whisper subprocess; a remote OpenAI Whisper backend takes over
// when the local one fails, so a broken GPU box degrades quality of service
// instead of dropping recordings.
package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/audioproc"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// LocalWhisper runs the local transcription script and parses its JSON
// stdout.
type LocalWhisper struct {
	cfg    config.TranscriptionConfig
	runner audioproc.Runner
}

// NewLocalWhisper creates the local transcription backend.
func NewLocalWhisper(cfg config.TranscriptionConfig, runner audioproc.Runner) *LocalWhisper {
	return &LocalWhisper{cfg: cfg, runner: runner}
}

// Transcribe runs the local engine on the given audio file.
func (l *LocalWhisper) Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionOutput, error) {
	args := []string{
		audioPath,
		"--model", l.cfg.ModelSize,
		"--language", l.cfg.Language,
		"--output-format", "json",
	}

	stdout, stderr, err := l.runner.Run(ctx, l.cfg.Command, args, []string{
		config.EnvWhisperModel + "=" + l.cfg.ModelSize,
	})
	if err != nil {
		slog.WarnContext(ctx, "local transcription failed",
			logging.ErrKey, err, "stderr", strings.TrimSpace(string(stderr)))
		return nil, domain.NewInternalError(
			fmt.Sprintf("local transcription failed: %s", strings.TrimSpace(string(stderr))), err)
	}

	var out models.TranscriptionOutput
	if err := json.Unmarshal(stdout, &out); err != nil {
		return nil, domain.NewInternalError("local transcription output is not valid JSON", err)
	}
	if out.Error != "" {
		return nil, domain.NewInternalError("local transcription reported error: " + out.Error)
	}

	slog.DebugContext(ctx, "local transcription completed",
		"language", out.Language,
		"language_probability", out.LanguageProbability,
		"chars", len(out.Text),
	)

	return &out, nil
}
