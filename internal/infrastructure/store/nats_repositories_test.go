// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

func TestNatsRecordingSessionRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsRecordingSessionRepository(newMockNatsKeyValue())

	session := &models.RecordingSession{
		UID:    "sess-1",
		UserID: "user-1",
		Status: models.SessionStatusRecording,
	}
	require.NoError(t, repo.Create(ctx, session))

	loaded, revision, err := repo.GetWithRevision(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", loaded.UserID)

	loaded.TotalChunks = 3
	require.NoError(t, repo.Update(ctx, loaded, revision))

	reloaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.TotalChunks)

	// Stale revision loses.
	err = repo.Update(ctx, reloaded, revision)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	require.NoError(t, repo.Delete(ctx, "sess-1"))
	_, err = repo.Get(ctx, "sess-1")
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestNatsRecordingSessionRepository_DuplicateCreateConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsRecordingSessionRepository(newMockNatsKeyValue())

	first := &models.RecordingSession{UID: "sess-1", UserID: "user-1", TotalChunks: 1}
	require.NoError(t, repo.Create(ctx, first))

	// The racing second create loses instead of overwriting.
	second := &models.RecordingSession{UID: "sess-1", UserID: "user-2"}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeConflict, domain.GetErrorType(err))

	kept, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", kept.UserID)
}

func TestNatsRecordingSessionRepository_Create_RequiresUID(t *testing.T) {
	repo := NewNatsRecordingSessionRepository(newMockNatsKeyValue())

	err := repo.Create(context.Background(), &models.RecordingSession{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
}

func TestNatsAudioRecordRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsAudioRecordRepository(newMockNatsKeyValue())

	record := &models.AudioRecord{
		UID:           "rec-1",
		SessionUID:    "sess-1",
		Transcription: "bonjour",
		Status:        models.AudioRecordStatusPending,
	}
	require.NoError(t, repo.Create(ctx, record))

	loaded, revision, err := repo.GetWithRevision(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", loaded.Transcription)

	loaded.Status = models.AudioRecordStatusExtracted
	require.NoError(t, repo.Update(ctx, loaded, revision))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestNatsDiarizationLogRepository_ListSince(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsDiarizationLogRepository(newMockNatsKeyValue())

	now := time.Now().UTC()
	entries := []*models.DiarizationLog{
		{UID: "log-old", Status: models.DiarizationLogStatusSuccess, CreatedAt: now.AddDate(0, 0, -10)},
		{UID: "log-mid", Status: models.DiarizationLogStatusFailed, CreatedAt: now.AddDate(0, 0, -2)},
		{UID: "log-new", Status: models.DiarizationLogStatusSuccess, CreatedAt: now},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Create(ctx, entry))
	}

	logs, err := repo.ListSince(ctx, now.AddDate(0, 0, -7))
	require.NoError(t, err)

	// The out-of-window entry is dropped and the rest come back oldest first.
	require.Len(t, logs, 2)
	assert.Equal(t, "log-mid", logs[0].UID)
	assert.Equal(t, "log-new", logs[1].UID)
}

func TestNatsPendingChangeRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsPendingChangeRepository(newMockNatsKeyValue())

	change := &models.ClientPendingChange{
		UID:       "change-1",
		ClientUID: "client-1",
		Status:    models.PendingChangeStatusPending,
	}
	require.NoError(t, repo.Create(ctx, change))

	loaded, revision, err := repo.GetWithRevision(ctx, "change-1")
	require.NoError(t, err)
	assert.Equal(t, models.PendingChangeStatusPending, loaded.Status)

	loaded.Status = models.PendingChangeStatusApplied
	require.NoError(t, repo.Update(ctx, loaded, revision))
}

func TestNatsClientProfileRepository_Update(t *testing.T) {
	ctx := context.Background()
	mockKV := newMockNatsKeyValue()
	repo := NewNatsClientProfileRepository(mockKV)

	// Profiles are created by the CRM, not this service; seed the bucket
	// directly.
	base := NewNatsBaseRepository[models.ClientProfile](mockKV, "client profile")
	require.NoError(t, base.Create(ctx, "client-1", &models.ClientProfile{UID: "client-1", City: "Lyon"}))

	profile, revision, err := repo.GetWithRevision(ctx, "client-1")
	require.NoError(t, err)

	profile.City = "Paris"
	require.NoError(t, repo.Update(ctx, profile, revision))

	reloaded, err := repo.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", reloaded.City)
}
