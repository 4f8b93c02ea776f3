// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"slices"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// NatsDiarizationLogRepository is the NATS KV store repository for diarization
// attempt logs. Logs are append-only; there is no update path.
type NatsDiarizationLogRepository struct {
	*NatsBaseRepository[models.DiarizationLog]
}

// NewNatsDiarizationLogRepository creates a new NATS KV store repository for diarization logs.
func NewNatsDiarizationLogRepository(kvStore INatsKeyValue) *NatsDiarizationLogRepository {
	return &NatsDiarizationLogRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.DiarizationLog](kvStore, "diarization log"),
	}
}

// Create creates a new diarization log entry
func (r *NatsDiarizationLogRepository) Create(ctx context.Context, log *models.DiarizationLog) error {
	if log.UID == "" {
		return domain.NewValidationError("diarization log UID is required")
	}

	return r.NatsBaseRepository.Create(ctx, log.UID, log)
}

// ListSince retrieves all diarization logs created at or after the given time,
// ordered oldest first.
func (r *NatsDiarizationLogRepository) ListSince(ctx context.Context, since time.Time) ([]*models.DiarizationLog, error) {
	all, err := r.NatsBaseRepository.ListEntities(ctx)
	if err != nil {
		return nil, err
	}

	var logs []*models.DiarizationLog
	for _, log := range all {
		if !log.CreatedAt.Before(since) {
			logs = append(logs, log)
		}
	}

	slices.SortFunc(logs, func(a, b *models.DiarizationLog) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return logs, nil
}
