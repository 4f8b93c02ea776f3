// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package domain holds the service's entity models, error taxonomy, and the
// interfaces its infrastructure adapters implement.
package domain

import (
	"context"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// RecordingSessionRepository persists recording session metadata.
type RecordingSessionRepository interface {
	Create(ctx context.Context, session *models.RecordingSession) error
	Get(ctx context.Context, sessionUID string) (*models.RecordingSession, error)
	GetWithRevision(ctx context.Context, sessionUID string) (*models.RecordingSession, uint64, error)
	Update(ctx context.Context, session *models.RecordingSession, revision uint64) error
	Delete(ctx context.Context, sessionUID string) error
	ListAll(ctx context.Context) ([]*models.RecordingSession, error)
}

// AudioRecordRepository persists transcript-bearing audio records.
type AudioRecordRepository interface {
	Create(ctx context.Context, record *models.AudioRecord) error
	Get(ctx context.Context, recordUID string) (*models.AudioRecord, error)
	GetWithRevision(ctx context.Context, recordUID string) (*models.AudioRecord, uint64, error)
	Update(ctx context.Context, record *models.AudioRecord, revision uint64) error
	Delete(ctx context.Context, recordUID string) error
	ListAll(ctx context.Context) ([]*models.AudioRecord, error)
}

// DiarizationLogRepository persists immutable diarization attempt records.
// Logs are only ever created and read, never updated.
type DiarizationLogRepository interface {
	Create(ctx context.Context, log *models.DiarizationLog) error
	ListSince(ctx context.Context, since time.Time) ([]*models.DiarizationLog, error)
}

// PendingChangeRepository persists proposed merges awaiting review.
type PendingChangeRepository interface {
	Create(ctx context.Context, change *models.ClientPendingChange) error
	Get(ctx context.Context, changeUID string) (*models.ClientPendingChange, error)
	GetWithRevision(ctx context.Context, changeUID string) (*models.ClientPendingChange, uint64, error)
	Update(ctx context.Context, change *models.ClientPendingChange, revision uint64) error
}

// ClientProfileRepository persists client profiles. The profile is read and
// updated as one document; the revision-checked update is the transactional
// boundary for merge-apply.
type ClientProfileRepository interface {
	Get(ctx context.Context, clientUID string) (*models.ClientProfile, error)
	GetWithRevision(ctx context.Context, clientUID string) (*models.ClientProfile, uint64, error)
	Update(ctx context.Context, profile *models.ClientProfile, revision uint64) error
}
