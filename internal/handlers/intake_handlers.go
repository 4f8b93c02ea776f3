// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package handlers dispatches incoming NATS messages onto the services.
package handlers

import (
	"context"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/internal/service"
)

// IntakeHandlers handles the pipeline's queue messages: finalize jobs and
// extraction results.
type IntakeHandlers struct {
	pipelineService      *service.RecordingPipelineService
	pendingChangeService *service.PendingChangeService
}

// NewIntakeHandlers creates a new intake handlers instance.
func NewIntakeHandlers(
	pipelineService *service.RecordingPipelineService,
	pendingChangeService *service.PendingChangeService,
) *IntakeHandlers {
	return &IntakeHandlers{
		pipelineService:      pipelineService,
		pendingChangeService: pendingChangeService,
	}
}

// HandlerReady reports whether the underlying services are ready.
func (h *IntakeHandlers) HandlerReady() bool {
	return h.pipelineService.ServiceReady() && h.pendingChangeService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (h *IntakeHandlers) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling intake NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) error{
		models.RecordingFinalizeSubject:   h.HandleFinalizeRecording,
		models.ExtractionCompletedSubject: h.HandleExtractionCompleted,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown intake message subject", "subject", subject)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "error handling intake message", logging.ErrKey, err)
		if msg.HasReply() {
			if respondErr := msg.Respond([]byte("error: " + err.Error())); respondErr != nil {
				slog.ErrorContext(ctx, "error responding to message", logging.ErrKey, respondErr)
			}
		}
		return
	}

	slog.DebugContext(ctx, "intake message handled successfully")
	if msg.HasReply() {
		if err := msg.Respond([]byte("success")); err != nil {
			slog.ErrorContext(ctx, "error responding to message", logging.ErrKey, err)
		}
	}
}

// HandleFinalizeRecording is the message handler for the recording finalize
// subject. One message runs the full pipeline for one session; the queue
// group ensures a job is delivered to a single worker.
func (h *IntakeHandlers) HandleFinalizeRecording(ctx context.Context, msg domain.Message) error {
	if !h.pipelineService.ServiceReady() {
		slog.ErrorContext(ctx, "service not ready")
		return domain.NewUnavailableError("service not ready")
	}

	var job models.FinalizeRecordingMessage
	if err := msgpack.Unmarshal(msg.Data(), &job); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling finalize message", logging.ErrKey, err)
		return domain.NewValidationError("invalid finalize message", err)
	}
	if job.SessionUID == "" || job.UserID == "" {
		return domain.NewValidationError("finalize message requires session UID and user ID")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", job.SessionUID))
	slog.InfoContext(ctx, "processing finalize job",
		"user_id", job.UserID, "requested_at", job.RequestedAt)

	return h.pipelineService.Finalize(ctx, job.SessionUID, job.UserID)
}

// HandleExtractionCompleted is the message handler for the extraction
// completed subject: the extraction collaborator parsed a transcript, so a
// pending change with a computed diff is created for review.
func (h *IntakeHandlers) HandleExtractionCompleted(ctx context.Context, msg domain.Message) error {
	if !h.pendingChangeService.ServiceReady() {
		slog.ErrorContext(ctx, "service not ready")
		return domain.NewUnavailableError("service not ready")
	}

	var extraction models.ExtractionCompletedMessage
	if err := msgpack.Unmarshal(msg.Data(), &extraction); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling extraction message", logging.ErrKey, err)
		return domain.NewValidationError("invalid extraction message", err)
	}
	if extraction.AudioRecordUID == "" || extraction.ClientUID == "" {
		return domain.NewValidationError("extraction message requires audio record UID and client UID")
	}

	ctx = logging.AppendCtx(ctx, slog.String("audio_record_uid", extraction.AudioRecordUID))

	change, err := h.pendingChangeService.CreateFromExtraction(ctx, extraction)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "pending change created from extraction",
		"pending_change_uid", change.UID, "fields", len(change.ChangesDiff))

	return nil
}
