// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// NatsRecordingSessionRepository is the NATS KV store repository for recording sessions.
type NatsRecordingSessionRepository struct {
	*NatsBaseRepository[models.RecordingSession]
}

// NewNatsRecordingSessionRepository creates a new NATS KV store repository for recording sessions.
func NewNatsRecordingSessionRepository(kvStore INatsKeyValue) *NatsRecordingSessionRepository {
	return &NatsRecordingSessionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.RecordingSession](kvStore, "recording session"),
	}
}

// Create creates a new recording session
func (r *NatsRecordingSessionRepository) Create(ctx context.Context, session *models.RecordingSession) error {
	if session.UID == "" {
		return domain.NewValidationError("recording session UID is required")
	}

	return r.NatsBaseRepository.Create(ctx, session.UID, session)
}

// Get retrieves a recording session by UID
func (r *NatsRecordingSessionRepository) Get(ctx context.Context, sessionUID string) (*models.RecordingSession, error) {
	return r.NatsBaseRepository.Get(ctx, sessionUID)
}

// GetWithRevision retrieves a recording session with its revision by UID
func (r *NatsRecordingSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.RecordingSession, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, sessionUID)
}

// Update updates an existing recording session
func (r *NatsRecordingSessionRepository) Update(ctx context.Context, session *models.RecordingSession, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, session.UID, session, revision)
}

// Delete removes a recording session. Used by retention jobs, so no revision
// check is applied.
func (r *NatsRecordingSessionRepository) Delete(ctx context.Context, sessionUID string) error {
	return r.NatsBaseRepository.DeleteWithoutRevision(ctx, sessionUID)
}

// ListAll retrieves all recording sessions
func (r *NatsRecordingSessionRepository) ListAll(ctx context.Context) ([]*models.RecordingSession, error) {
	return r.NatsBaseRepository.ListEntities(ctx)
}
