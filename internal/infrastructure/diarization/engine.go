// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package diarization drives the external speaker separation model through a
// Python subprocess. The subprocess writes its structured result to a file
// whose path we pass in, which keeps stdout free for the model's own logging.
package diarization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/infrastructure/audioproc"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// PythonEngine runs speaker diarization via the configured Python script.
type PythonEngine struct {
	cfg     config.DiarizationConfig
	runner  audioproc.Runner
	scratch domain.ScratchStore

	// availability is decided once per process: it depends on the script and
	// interpreter being installed, neither of which changes at runtime.
	available func() bool

	healthMu      sync.Mutex
	healthResult  *models.HealthCheckResult
	healthFetched time.Time
}

// NewPythonEngine creates a diarization engine backed by the configured
// script.
func NewPythonEngine(cfg config.DiarizationConfig, runner audioproc.Runner, scratch domain.ScratchStore) *PythonEngine {
	e := &PythonEngine{
		cfg:     cfg,
		runner:  runner,
		scratch: scratch,
	}
	e.available = sync.OnceValue(e.probeAvailability)
	return e
}

// IsAvailable reports whether the diarization runtime is usable. The probe
// runs once; later calls return the cached answer.
func (e *PythonEngine) IsAvailable(_ context.Context) bool {
	return e.available()
}

func (e *PythonEngine) probeAvailability() bool {
	if _, err := os.Stat(e.cfg.Script); err != nil {
		slog.Warn("diarization script not found, speaker separation disabled",
			"script", e.cfg.Script, logging.ErrKey, err)
		return false
	}
	if os.Getenv(config.EnvHuggingFaceToken) == "" {
		slog.Warn("diarization model token not set, speaker separation disabled",
			"env", config.EnvHuggingFaceToken)
		return false
	}
	return true
}

// Diarize runs the model on the given audio file. When the engine is
// unavailable it returns a non-success result without spawning a subprocess,
// so callers fall back to full-recording transcription.
func (e *PythonEngine) Diarize(ctx context.Context, audioPath string) (*models.DiarizationResult, error) {
	if !e.available() {
		return &models.DiarizationResult{
			Success: false,
			Error:   "diarization engine unavailable",
		}, nil
	}

	resultPath := e.scratch.ScratchPath("diarization_result", "json")
	defer func() {
		_ = os.Remove(resultPath)
	}()

	timeout := time.Duration(e.cfg.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	args := []string{e.cfg.Script, audioPath, resultPath}
	// The model token travels through the environment only; it must never
	// appear in argv where other processes could read it.
	_, stderr, err := e.runner.Run(runCtx, e.cfg.PythonBin, args, []string{
		config.EnvHuggingFaceToken + "=" + os.Getenv(config.EnvHuggingFaceToken),
	})
	elapsed := time.Since(started)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			slog.ErrorContext(ctx, "diarization timed out",
				"timeout", timeout, "elapsed", elapsed)
			return nil, domain.NewTimeoutError(
				fmt.Sprintf("diarization exceeded %s budget", timeout), err)
		}
		slog.ErrorContext(ctx, "diarization subprocess failed",
			logging.ErrKey, err, "elapsed", elapsed, "stderr", truncate(string(stderr), 2000))
		return nil, domain.NewInternalError(
			fmt.Sprintf("diarization failed: %s", truncate(strings.TrimSpace(string(stderr)), 500)), err)
	}

	result, err := readResultFile(resultPath)
	if err != nil {
		slog.ErrorContext(ctx, "diarization result unreadable", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "diarization completed",
		"success", result.Success,
		"total_speakers", result.TotalSpeakers,
		"client_segments", len(result.ClientSegments),
		"single_speaker_mode", result.SingleSpeakerMode,
		"elapsed", elapsed,
	)

	return result, nil
}

func readResultFile(path string) (*models.DiarizationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewInternalError("diarization wrote no result file", err)
	}
	var result models.DiarizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, domain.NewInternalError("diarization result is not valid JSON", err)
	}
	return &result, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
