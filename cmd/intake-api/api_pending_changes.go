// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// HandleGetPendingChange returns a pending change with its computed diff for
// the review UI.
func (a *IntakeAPI) HandleGetPendingChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, teamID := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	change, err := a.pendingChangeService.GetChange(ctx, chi.URLParam(r, "changeUID"), teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, change)
}

// reviewRequest is the body of a review submission.
type reviewRequest struct {
	Decisions     map[string]models.Decision `json:"decisions"`
	RejectReasons map[string]string          `json:"reject_reasons,omitempty"`
	Overrides     map[string]any             `json:"overrides,omitempty"`
}

// HandleReviewPendingChange applies the reviewer's accept/reject decisions.
func (a *IntakeAPI) HandleReviewPendingChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, w, domain.NewValidationError("invalid review request body", err))
		return
	}

	result, err := a.pendingChangeService.ApplyChanges(
		ctx, chi.URLParam(r, "changeUID"), req.Decisions, req.RejectReasons, req.Overrides, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}

// HandleAutoApplyPendingChange accepts every safe field (changed, neither
// conflict nor critical) and applies.
func (a *IntakeAPI) HandleAutoApplyPendingChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	result, err := a.pendingChangeService.AutoApplySafeChanges(ctx, chi.URLParam(r, "changeUID"), userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}
