// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package transcription

import (
	"context"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// whisperClient is the slice of the OpenAI client the remote backend needs.
type whisperClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// RemoteWhisper transcribes via the OpenAI Whisper API. It is the fallback
// backend: only invoked when the local engine fails.
type RemoteWhisper struct {
	client   whisperClient
	language string
}

// NewRemoteWhisper creates the remote backend, or nil when no API key is
// configured so the adapter knows there is no fallback.
func NewRemoteWhisper(cfg config.TranscriptionConfig) *RemoteWhisper {
	apiKey := os.Getenv(config.EnvOpenAIAPIKey)
	if apiKey == "" {
		return nil
	}
	return &RemoteWhisper{
		client:   openai.NewClient(apiKey),
		language: cfg.Language,
	}
}

// Transcribe sends the audio file to the Whisper API with the configured
// language hint.
func (r *RemoteWhisper) Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionOutput, error) {
	resp, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Language: r.language,
	})
	if err != nil {
		slog.WarnContext(ctx, "remote transcription failed", logging.ErrKey, err)
		return nil, domain.NewInternalError("remote transcription failed", err)
	}

	slog.DebugContext(ctx, "remote transcription completed", "chars", len(resp.Text))

	return &models.TranscriptionOutput{
		Text:     resp.Text,
		Language: r.language,
	}, nil
}
