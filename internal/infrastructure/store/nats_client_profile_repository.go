// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// NatsClientProfileRepository is the NATS KV store repository for client
// profiles. The wider CRM owns profile creation; this service only reads
// profiles and applies reviewed merges, which is why there is no Create.
type NatsClientProfileRepository struct {
	*NatsBaseRepository[models.ClientProfile]
}

// NewNatsClientProfileRepository creates a new NATS KV store repository for client profiles.
func NewNatsClientProfileRepository(kvStore INatsKeyValue) *NatsClientProfileRepository {
	return &NatsClientProfileRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.ClientProfile](kvStore, "client profile"),
	}
}

// Get retrieves a client profile by UID
func (r *NatsClientProfileRepository) Get(ctx context.Context, clientUID string) (*models.ClientProfile, error) {
	return r.NatsBaseRepository.Get(ctx, clientUID)
}

// GetWithRevision retrieves a client profile with its revision by UID
func (r *NatsClientProfileRepository) GetWithRevision(ctx context.Context, clientUID string) (*models.ClientProfile, uint64, error) {
	return r.NatsBaseRepository.GetWithRevision(ctx, clientUID)
}

// Update updates an existing client profile. The revision check makes the
// whole merge-apply atomic: a concurrent modification surfaces as a conflict
// and nothing is written.
func (r *NatsClientProfileRepository) Update(ctx context.Context, profile *models.ClientProfile, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, profile.UID, profile, revision)
}
