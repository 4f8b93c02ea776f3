// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package diarization

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// HealthCheck runs the lightweight probe script, which checks the model
// runtime without loading the full model. Results are cached because the
// probe still costs a Python startup; forceRefresh bypasses the cache.
func (e *PythonEngine) HealthCheck(ctx context.Context, forceRefresh bool) (*models.HealthCheckResult, error) {
	e.healthMu.Lock()
	defer e.healthMu.Unlock()

	ttl := time.Duration(e.cfg.HealthCacheTTLMin) * time.Minute
	if !forceRefresh && e.healthResult != nil && time.Since(e.healthFetched) < ttl {
		return e.healthResult, nil
	}

	result, err := e.runHealthProbe(ctx)
	if err != nil {
		return nil, err
	}

	e.healthResult = result
	e.healthFetched = time.Now()
	return result, nil
}

func (e *PythonEngine) runHealthProbe(ctx context.Context) (*models.HealthCheckResult, error) {
	if _, err := os.Stat(e.cfg.HealthScript); err != nil {
		// No probe script is a definitive answer, not a probe failure.
		return &models.HealthCheckResult{
			Available: false,
			Errors:    []string{fmt.Sprintf("health script not found: %s", e.cfg.HealthScript)},
			CheckedAt: time.Now().UTC(),
		}, nil
	}

	timeout := time.Duration(e.cfg.HealthTimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(runCtx, e.cfg.PythonBin, []string{e.cfg.HealthScript}, []string{
		config.EnvHuggingFaceToken + "=" + os.Getenv(config.EnvHuggingFaceToken),
	})
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, domain.NewTimeoutError(
				fmt.Sprintf("health probe exceeded %s budget", timeout), err)
		}
		slog.ErrorContext(ctx, "diarization health probe failed",
			logging.ErrKey, err, "stderr", truncate(string(stderr), 2000))
		return nil, domain.NewInternalError(
			fmt.Sprintf("health probe failed: %s", truncate(strings.TrimSpace(string(stderr)), 500)), err)
	}

	var result models.HealthCheckResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		return nil, domain.NewInternalError("health probe output is not valid JSON", err)
	}
	result.CheckedAt = time.Now().UTC()

	return &result, nil
}
