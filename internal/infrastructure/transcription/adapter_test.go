// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package transcription

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

type stubTranscriber struct {
	out   *models.TranscriptionOutput
	err   error
	calls int
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ string) (*models.TranscriptionOutput, error) {
	s.calls++
	return s.out, s.err
}

type fakeRunner struct {
	calls   int
	lastCmd string
	handler func(name string, args []string) (stdout, stderr []byte, err error)
}

func (r *fakeRunner) Run(_ context.Context, name string, args []string, _ []string) ([]byte, []byte, error) {
	r.calls++
	r.lastCmd = name
	if r.handler == nil {
		return nil, nil, nil
	}
	return r.handler(name, args)
}

func writeAudioFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x1}, size), 0o640))
	return path
}

func TestFailoverTranscriber_SkipsTinyFiles(t *testing.T) {
	primary := &stubTranscriber{}
	ft := &FailoverTranscriber{primary: primary, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 500))
	require.NoError(t, err)

	assert.Empty(t, out.Text)
	assert.Zero(t, primary.calls, "silence-sized files must not reach a backend")
}

func TestFailoverTranscriber_PrimarySuccess(t *testing.T) {
	primary := &stubTranscriber{out: &models.TranscriptionOutput{Text: "bonjour"}}
	fallback := &stubTranscriber{}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.NoError(t, err)

	assert.Equal(t, "bonjour", out.Text)
	assert.Zero(t, fallback.calls)
}

func TestFailoverTranscriber_FallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubTranscriber{err: domain.NewInternalError("local transcription failed")}
	fallback := &stubTranscriber{out: &models.TranscriptionOutput{Text: "bonjour madame"}}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.NoError(t, err)

	assert.Equal(t, "bonjour madame", out.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverTranscriber_FallsBackOnEmptyPrimaryResult(t *testing.T) {
	primary := &stubTranscriber{out: &models.TranscriptionOutput{Text: "   "}}
	fallback := &stubTranscriber{out: &models.TranscriptionOutput{Text: "bonjour"}}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.NoError(t, err)

	assert.Equal(t, "bonjour", out.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls, "a blank local result must reach the remote backend")
}

func TestFailoverTranscriber_EmptyPrimaryAndFailingFallback(t *testing.T) {
	primary := &stubTranscriber{out: &models.TranscriptionOutput{Text: ""}}
	fallback := &stubTranscriber{err: errors.New("remote broke")}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.NoError(t, err)

	assert.Empty(t, out.Text, "the local engine's empty answer stands when the remote also fails")
	assert.Equal(t, 1, fallback.calls)
}

func TestFailoverTranscriber_EmptyPrimaryWithoutFallback(t *testing.T) {
	primary := &stubTranscriber{out: &models.TranscriptionOutput{Text: ""}}
	ft := &FailoverTranscriber{primary: primary, minSize: 1024}

	out, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.NoError(t, err)
	assert.Empty(t, out.Text)
}

func TestFailoverTranscriber_NoFallbackConfigured(t *testing.T) {
	primaryErr := domain.NewInternalError("local transcription failed")
	ft := &FailoverTranscriber{primary: &stubTranscriber{err: primaryErr}, minSize: 1024}

	_, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.Error(t, err)
	assert.Equal(t, primaryErr, err)
}

func TestFailoverTranscriber_BothBackendsFail(t *testing.T) {
	primary := &stubTranscriber{err: errors.New("local broke")}
	fallback := &stubTranscriber{err: errors.New("remote broke")}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	_, err := ft.Transcribe(context.Background(), writeAudioFile(t, 2000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all transcription backends failed")
}

func TestFailoverTranscriber_CancelledContextSkipsFallback(t *testing.T) {
	primary := &stubTranscriber{err: errors.New("killed")}
	fallback := &stubTranscriber{out: &models.TranscriptionOutput{Text: "should not run"}}
	ft := &FailoverTranscriber{primary: primary, fallback: fallback, minSize: 1024}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ft.Transcribe(ctx, writeAudioFile(t, 2000))
	require.Error(t, err)
	assert.Zero(t, fallback.calls, "a spent budget must not be retried remotely")
}

func TestFailoverTranscriber_MissingFile(t *testing.T) {
	ft := &FailoverTranscriber{primary: &stubTranscriber{}, minSize: 1024}

	_, err := ft.Transcribe(context.Background(), "/does/not/exist.wav")
	require.Error(t, err)
}

func TestLocalWhisper_Transcribe(t *testing.T) {
	cfg := config.TranscriptionConfig{
		Command:   "/opt/audio-intake/transcribe.py",
		ModelSize: "small",
		Language:  "fr",
	}

	t.Run("parses JSON stdout", func(t *testing.T) {
		runner := &fakeRunner{
			handler: func(_ string, _ []string) ([]byte, []byte, error) {
				return []byte(`{"text": "je voudrais ouvrir un PEA", "language": "fr", "language_probability": 0.98}`), nil, nil
			},
		}
		lw := NewLocalWhisper(cfg, runner)

		out, err := lw.Transcribe(context.Background(), "/audio/client.wav")
		require.NoError(t, err)
		assert.Equal(t, "je voudrais ouvrir un PEA", out.Text)
		assert.Equal(t, "fr", out.Language)
		assert.Equal(t, cfg.Command, runner.lastCmd)
	})

	t.Run("engine-reported error becomes an error", func(t *testing.T) {
		runner := &fakeRunner{
			handler: func(_ string, _ []string) ([]byte, []byte, error) {
				return []byte(`{"text": "", "error": "model download failed"}`), nil, nil
			},
		}
		lw := NewLocalWhisper(cfg, runner)

		_, err := lw.Transcribe(context.Background(), "/audio/client.wav")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model download failed")
	})

	t.Run("subprocess failure surfaces stderr", func(t *testing.T) {
		runner := &fakeRunner{
			handler: func(_ string, _ []string) ([]byte, []byte, error) {
				return nil, []byte("ModuleNotFoundError: faster_whisper"), errors.New("exit status 1")
			},
		}
		lw := NewLocalWhisper(cfg, runner)

		_, err := lw.Transcribe(context.Background(), "/audio/client.wav")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "faster_whisper")
	})
}

func TestNewRemoteWhisper_RequiresAPIKey(t *testing.T) {
	t.Setenv(config.EnvOpenAIAPIKey, "")
	assert.Nil(t, NewRemoteWhisper(config.TranscriptionConfig{Language: "fr"}))

	t.Setenv(config.EnvOpenAIAPIKey, "sk-test")
	assert.NotNil(t, NewRemoteWhisper(config.TranscriptionConfig{Language: "fr"}))
}
