// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// NatsPendingChangeRepository is the NATS KV store repository for client pending changes.
type NatsPendingChangeRepository struct {
	*NatsBaseRepository[models.ClientPendingChange]
}

// NewNatsPendingChangeRepository creates a new NATS KV store repository for pending changes.
func NewNatsPendingChangeRepository(kvStore INatsKeyValue) *NatsPendingChangeRepository {
	return &NatsPendingChangeRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.ClientPendingChange](kvStore, "pending change"),
	}
}

// Create creates a new pending change
func (r *NatsPendingChangeRepository) Create(ctx context.Context, change *models.ClientPendingChange) error {
	if change.UID == "" {
		return domain.NewValidationError("pending change UID is required")
	}
	if change.ClientUID == "" {
		return domain.NewValidationError("pending change client UID is required")
	}

	return r.NatsBaseRepository.Create(ctx, change.UID, change)
}

// Get retrieves a pending change by UID
func (r *NatsPendingChangeRepository) Get(ctx context.Context, changeUID string) (*models.ClientPendingChange, error) {
	return r.NatsBaseRepository.Get(ctx, changeUID)
}

// GetWithRevision retrieves a pending change with its revision by UID
func (r *NatsPendingChangeRepository) GetWithRevision(ctx context.Context, changeUID string) (*models.ClientPendingChange, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, changeUID)
}

// Update updates an existing pending change
func (r *NatsPendingChangeRepository) Update(ctx context.Context, change *models.ClientPendingChange, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, change.UID, change, revision)
}
