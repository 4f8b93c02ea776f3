// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// RecordingSessionService implements chunk intake and finalize dispatch for
// recording sessions.
type RecordingSessionService struct {
	sessionRepository domain.RecordingSessionRepository
	chunkStore        domain.ChunkStore
	messageBuilder    domain.MessageBuilder
	config            ServiceConfig
}

// NewRecordingSessionService creates a new RecordingSessionService.
func NewRecordingSessionService(
	sessionRepository domain.RecordingSessionRepository,
	chunkStore domain.ChunkStore,
	messageBuilder domain.MessageBuilder,
	serviceConfig ServiceConfig,
) *RecordingSessionService {
	return &RecordingSessionService{
		sessionRepository: sessionRepository,
		chunkStore:        chunkStore,
		messageBuilder:    messageBuilder,
		config:            serviceConfig,
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *RecordingSessionService) ServiceReady() bool {
	return s.sessionRepository != nil &&
		s.chunkStore != nil &&
		s.messageBuilder != nil
}

// StoreChunk persists one uploaded chunk. The session record is created on
// the first chunk; later chunks must come from the same owner.
func (s *RecordingSessionService) StoreChunk(
	ctx context.Context,
	sessionUID string,
	partIndex int,
	content io.Reader,
	userID, teamID, clientUID string,
) (*models.RecordingSession, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	if sessionUID == "" {
		return nil, domain.NewValidationError("session UID is required")
	}
	if partIndex < 0 {
		return nil, domain.NewValidationError("part index must not be negative")
	}
	if userID == "" {
		return nil, domain.NewValidationError("user ID is required")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, revision, err := s.loadOrCreateSession(ctx, sessionUID, userID, teamID, clientUID)
	if err != nil {
		return nil, err
	}

	if session.UserID != userID {
		slog.WarnContext(ctx, "chunk upload rejected, session owned by another user",
			"owner", session.UserID, "uploader", userID)
		return nil, domain.NewForbiddenError("session belongs to another user")
	}
	if session.Status != models.SessionStatusRecording {
		return nil, domain.NewConflictError("session is no longer accepting chunks")
	}

	if _, err := s.chunkStore.StoreChunk(ctx, sessionUID, partIndex, content); err != nil {
		slog.ErrorContext(ctx, "error storing chunk", logging.ErrKey, err, "part_index", partIndex)
		return nil, err
	}

	session.RecordChunk(partIndex)
	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		slog.ErrorContext(ctx, "error updating session chunk count", logging.ErrKey, err)
		return nil, err
	}

	slog.DebugContext(ctx, "chunk stored", "part_index", partIndex, "total_chunks", session.TotalChunks)

	return session, nil
}

// loadOrCreateSession fetches the session or creates it in the recording
// state when this is the first chunk.
func (s *RecordingSessionService) loadOrCreateSession(
	ctx context.Context,
	sessionUID, userID, teamID, clientUID string,
) (*models.RecordingSession, uint64, error) {
	session, revision, err := s.sessionRepository.GetWithRevision(ctx, sessionUID)
	if err == nil {
		return session, revision, nil
	}
	if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		slog.ErrorContext(ctx, "error loading session", logging.ErrKey, err)
		return nil, 0, err
	}

	now := time.Now().UTC()
	session = &models.RecordingSession{
		UID:       sessionUID,
		UserID:    userID,
		TeamID:    teamID,
		ClientUID: clientUID,
		Status:    models.SessionStatusRecording,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepository.Create(ctx, session); err != nil {
		// Lost a create race with a concurrent first chunk; reload.
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			return s.sessionRepository.GetWithRevision(ctx, sessionUID)
		}
		slog.ErrorContext(ctx, "error creating session", logging.ErrKey, err)
		return nil, 0, err
	}

	slog.InfoContext(ctx, "recording session created", "user_id", userID, "client_uid", clientUID)

	return s.sessionRepository.GetWithRevision(ctx, sessionUID)
}

// GetSession returns a session after checking ownership.
func (s *RecordingSessionService) GetSession(ctx context.Context, sessionUID, userID string) (*models.RecordingSession, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}

	session, err := s.sessionRepository.Get(ctx, sessionUID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.NewForbiddenError("session belongs to another user")
	}
	return session, nil
}

// RequestFinalize validates the session and enqueues the finalize job. The
// pipeline itself runs on a queue worker, so uploads get a fast response and
// the queue group gives single delivery per job across the fleet.
func (s *RecordingSessionService) RequestFinalize(ctx context.Context, sessionUID, userID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("service not initialized")
	}

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, err := s.sessionRepository.Get(ctx, sessionUID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		slog.WarnContext(ctx, "finalize rejected, session owned by another user",
			"owner", session.UserID, "requester", userID)
		return domain.NewForbiddenError("session belongs to another user")
	}
	if session.Status != models.SessionStatusRecording {
		return domain.NewConflictError("session already finalized or finalizing")
	}

	err = s.messageBuilder.SendFinalizeRecording(ctx, models.FinalizeRecordingMessage{
		SessionUID:  sessionUID,
		UserID:      userID,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "error enqueueing finalize job", logging.ErrKey, err)
		return domain.NewInternalError("error enqueueing finalize job", err)
	}

	slog.InfoContext(ctx, "finalize job enqueued", "total_chunks", session.TotalChunks)

	return nil
}
