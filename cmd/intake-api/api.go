// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/internal/service"
)

// INatsConnStatus is the slice of the NATS connection the readiness probe needs.
type INatsConnStatus interface {
	IsConnected() bool
}

// IntakeAPI holds the HTTP surface of the audio intake service. Identity
// arrives via the X-User-ID and X-Team-ID headers set by the authenticating
// gateway; the service trusts them as the auth layer is an external
// collaborator.
type IntakeAPI struct {
	sessionService       *service.RecordingSessionService
	pendingChangeService *service.PendingChangeService
	statsService         *service.DiarizationStatsService
	retentionService     *service.RetentionService
	diarizationEngine    domain.DiarizationEngine
	natsConn             INatsConnStatus
}

// NewIntakeAPI creates a new IntakeAPI.
func NewIntakeAPI(
	sessionService *service.RecordingSessionService,
	pendingChangeService *service.PendingChangeService,
	statsService *service.DiarizationStatsService,
	retentionService *service.RetentionService,
	diarizationEngine domain.DiarizationEngine,
	natsConn INatsConnStatus,
) *IntakeAPI {
	return &IntakeAPI{
		sessionService:       sessionService,
		pendingChangeService: pendingChangeService,
		statsService:         statsService,
		retentionService:     retentionService,
		diarizationEngine:    diarizationEngine,
		natsConn:             natsConn,
	}
}

// HandleLivez checks if the service is alive.
func (a *IntakeAPI) HandleLivez(w http.ResponseWriter, _ *http.Request) {
	// This always returns as long as the service is still running. As this
	// endpoint is expected to be used as a Kubernetes liveness check, this
	// service must likewise self-detect non-recoverable errors and
	// self-terminate.
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// HandleReadyz checks if the service is able to take inbound requests.
func (a *IntakeAPI) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if !a.natsConn.IsConnected() || !a.sessionService.ServiceReady() {
		writeError(r.Context(), w, domain.ErrServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// identity extracts the caller identity from the trusted gateway headers.
func identity(r *http.Request) (userID, teamID string) {
	return r.Header.Get("X-User-ID"), r.Header.Get("X-Team-ID")
}

// writeJSON encodes the payload with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "error encoding response", logging.ErrKey, err)
	}
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		status = http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		status = http.StatusNotFound
	case domain.ErrorTypeForbidden:
		status = http.StatusForbidden
	case domain.ErrorTypeConflict:
		status = http.StatusConflict
	case domain.ErrorTypeTimeout:
		status = http.StatusGatewayTimeout
	case domain.ErrorTypeUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", logging.ErrKey, err)
	}
	writeJSON(ctx, w, status, errorResponse{Error: err.Error()})
}
