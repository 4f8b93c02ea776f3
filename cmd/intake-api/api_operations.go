// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
)

// HandleDiarizationHealth runs the diarization health probe. The result is
// cached; refresh=true forces a new probe.
func (a *IntakeAPI) HandleDiarizationHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	forceRefresh := r.URL.Query().Get("refresh") == "true"
	result, err := a.diarizationEngine.HealthCheck(ctx, forceRefresh)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if !result.Available {
		status = http.StatusServiceUnavailable
	}
	writeJSON(ctx, w, status, result)
}

// HandleDiarizationStats aggregates the diarization audit log over a
// trailing window (default 7 days).
func (a *IntakeAPI) HandleDiarizationStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, domain.NewValidationError("days must be an integer"))
			return
		}
		days = parsed
	}

	report, err := a.statsService.Stats(ctx, days)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, report)
}

// cleanupTempRequest is the body of a scratch cleanup request.
type cleanupTempRequest struct {
	Hours  int  `json:"hours"`
	DryRun bool `json:"dry_run"`
}

// HandleCleanupTemp sweeps aged scratch files.
func (a *IntakeAPI) HandleCleanupTemp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := cleanupTempRequest{Hours: 24}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, domain.NewValidationError("invalid cleanup request body", err))
			return
		}
	}

	report, err := a.retentionService.CleanupTemp(ctx, req.Hours, req.DryRun)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, report)
}

// purgeOldRequest is the body of a retention purge request.
type purgeOldRequest struct {
	Days                  int    `json:"days"`
	DryRun                bool   `json:"dry_run"`
	IncludeTranscriptions bool   `json:"include_transcriptions"`
	Team                  string `json:"team,omitempty"`
}

// HandlePurgeOld purges terminal sessions (and optionally transcripts) past
// the retention window.
func (a *IntakeAPI) HandlePurgeOld(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := purgeOldRequest{Days: 30}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, domain.NewValidationError("invalid purge request body", err))
			return
		}
	}

	report, err := a.retentionService.PurgeOld(ctx, req.Days, req.DryRun, req.IncludeTranscriptions, req.Team)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, report)
}
