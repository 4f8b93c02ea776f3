// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package mocks provides testify mocks of the domain interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// MockRecordingSessionRepository implements RecordingSessionRepository for testing
type MockRecordingSessionRepository struct {
	mock.Mock
}

func (m *MockRecordingSessionRepository) Create(ctx context.Context, session *models.RecordingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRecordingSessionRepository) Get(ctx context.Context, sessionUID string) (*models.RecordingSession, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecordingSession), args.Error(1)
}

func (m *MockRecordingSessionRepository) GetWithRevision(ctx context.Context, sessionUID string) (*models.RecordingSession, uint64, error) {
	args := m.Called(ctx, sessionUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.RecordingSession), args.Get(1).(uint64), args.Error(2)
}

func (m *MockRecordingSessionRepository) Update(ctx context.Context, session *models.RecordingSession, revision uint64) error {
	args := m.Called(ctx, session, revision)
	return args.Error(0)
}

func (m *MockRecordingSessionRepository) Delete(ctx context.Context, sessionUID string) error {
	args := m.Called(ctx, sessionUID)
	return args.Error(0)
}

func (m *MockRecordingSessionRepository) ListAll(ctx context.Context) ([]*models.RecordingSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RecordingSession), args.Error(1)
}

// MockAudioRecordRepository implements AudioRecordRepository for testing
type MockAudioRecordRepository struct {
	mock.Mock
}

func (m *MockAudioRecordRepository) Create(ctx context.Context, record *models.AudioRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAudioRecordRepository) Get(ctx context.Context, recordUID string) (*models.AudioRecord, error) {
	args := m.Called(ctx, recordUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AudioRecord), args.Error(1)
}

func (m *MockAudioRecordRepository) GetWithRevision(ctx context.Context, recordUID string) (*models.AudioRecord, uint64, error) {
	args := m.Called(ctx, recordUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.AudioRecord), args.Get(1).(uint64), args.Error(2)
}

func (m *MockAudioRecordRepository) Update(ctx context.Context, record *models.AudioRecord, revision uint64) error {
	args := m.Called(ctx, record, revision)
	return args.Error(0)
}

func (m *MockAudioRecordRepository) Delete(ctx context.Context, recordUID string) error {
	args := m.Called(ctx, recordUID)
	return args.Error(0)
}

func (m *MockAudioRecordRepository) ListAll(ctx context.Context) ([]*models.AudioRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AudioRecord), args.Error(1)
}

// MockDiarizationLogRepository implements DiarizationLogRepository for testing
type MockDiarizationLogRepository struct {
	mock.Mock
}

func (m *MockDiarizationLogRepository) Create(ctx context.Context, log *models.DiarizationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockDiarizationLogRepository) ListSince(ctx context.Context, since time.Time) ([]*models.DiarizationLog, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DiarizationLog), args.Error(1)
}

// MockPendingChangeRepository implements PendingChangeRepository for testing
type MockPendingChangeRepository struct {
	mock.Mock
}

func (m *MockPendingChangeRepository) Create(ctx context.Context, change *models.ClientPendingChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockPendingChangeRepository) Get(ctx context.Context, changeUID string) (*models.ClientPendingChange, error) {
	args := m.Called(ctx, changeUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientPendingChange), args.Error(1)
}

func (m *MockPendingChangeRepository) GetWithRevision(ctx context.Context, changeUID string) (*models.ClientPendingChange, uint64, error) {
	args := m.Called(ctx, changeUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.ClientPendingChange), args.Get(1).(uint64), args.Error(2)
}

func (m *MockPendingChangeRepository) Update(ctx context.Context, change *models.ClientPendingChange, revision uint64) error {
	args := m.Called(ctx, change, revision)
	return args.Error(0)
}

// MockClientProfileRepository implements ClientProfileRepository for testing
type MockClientProfileRepository struct {
	mock.Mock
}

func (m *MockClientProfileRepository) Get(ctx context.Context, clientUID string) (*models.ClientProfile, error) {
	args := m.Called(ctx, clientUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClientProfile), args.Error(1)
}

func (m *MockClientProfileRepository) GetWithRevision(ctx context.Context, clientUID string) (*models.ClientProfile, uint64, error) {
	args := m.Called(ctx, clientUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.ClientProfile), args.Get(1).(uint64), args.Error(2)
}

func (m *MockClientProfileRepository) Update(ctx context.Context, profile *models.ClientProfile, revision uint64) error {
	args := m.Called(ctx, profile, revision)
	return args.Error(0)
}
