// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
)

// maxChunkBytes caps one uploaded chunk. Two minutes of compressed audio is
// well under this; anything larger is a misbehaving client.
const maxChunkBytes = 64 << 20

// HandleUploadChunk stores one audio chunk. The request body is the raw
// chunk bytes; the session is created on the first chunk.
func (a *IntakeAPI) HandleUploadChunk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, teamID := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	sessionUID := chi.URLParam(r, "sessionUID")
	partIndex, err := strconv.Atoi(chi.URLParam(r, "partIndex"))
	if err != nil {
		writeError(ctx, w, domain.NewValidationError("part index must be an integer"))
		return
	}
	clientUID := r.URL.Query().Get("client_uid")

	body := http.MaxBytesReader(w, r.Body, maxChunkBytes)
	defer func() {
		_ = body.Close()
	}()

	session, err := a.sessionService.StoreChunk(ctx, sessionUID, partIndex, body, userID, teamID, clientUID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, session)
}

// HandleGetSession returns session status and, once completed, the final
// transcription.
func (a *IntakeAPI) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	session, err := a.sessionService.GetSession(ctx, chi.URLParam(r, "sessionUID"), userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, session)
}

// HandleFinalizeSession enqueues the finalize job. Processing is
// asynchronous; clients poll the session until it reaches a terminal state.
func (a *IntakeAPI) HandleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := identity(r)
	if userID == "" {
		writeError(ctx, w, domain.NewValidationError("X-User-ID header is required"))
		return
	}

	if err := a.sessionService.RequestFinalize(ctx, chi.URLParam(r, "sessionUID"), userID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, map[string]string{"status": "processing"})
}
