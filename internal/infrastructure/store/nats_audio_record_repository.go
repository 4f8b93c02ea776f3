// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// NatsAudioRecordRepository is the NATS KV store repository for audio records.
type NatsAudioRecordRepository struct {
	*NatsBaseRepository[models.AudioRecord]
}

// NewNatsAudioRecordRepository creates a new NATS KV store repository for audio records.
func NewNatsAudioRecordRepository(kvStore INatsKeyValue) *NatsAudioRecordRepository {
	return &NatsAudioRecordRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.AudioRecord](kvStore, "audio record"),
	}
}

// Create creates a new audio record
func (r *NatsAudioRecordRepository) Create(ctx context.Context, record *models.AudioRecord) error {
	if record.UID == "" {
		return domain.NewValidationError("audio record UID is required")
	}

	return r.NatsBaseRepository.Create(ctx, record.UID, record)
}

// Get retrieves an audio record by UID
func (r *NatsAudioRecordRepository) Get(ctx context.Context, recordUID string) (*models.AudioRecord, error) {
	return r.NatsBaseRepository.Get(ctx, recordUID)
}

// GetWithRevision retrieves an audio record with its revision by UID
func (r *NatsAudioRecordRepository) GetWithRevision(ctx context.Context, recordUID string) (*models.AudioRecord, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, recordUID)
}

// Update updates an existing audio record
func (r *NatsAudioRecordRepository) Update(ctx context.Context, record *models.AudioRecord, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, record.UID, record, revision)
}

// Delete removes an audio record. Used by the RGPD-style retention purge.
func (r *NatsAudioRecordRepository) Delete(ctx context.Context, recordUID string) error {
	return r.NatsBaseRepository.DeleteWithoutRevision(ctx, recordUID)
}

// ListAll retrieves all audio records
func (r *NatsAudioRecordRepository) ListAll(ctx context.Context) ([]*models.AudioRecord, error) {
	return r.NatsBaseRepository.ListEntities(ctx)
}
