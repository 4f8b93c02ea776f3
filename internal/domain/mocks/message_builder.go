// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// MockMessageBuilder implements MessageBuilder for testing
type MockMessageBuilder struct {
	mock.Mock
}

func (m *MockMessageBuilder) SendFinalizeRecording(ctx context.Context, data models.FinalizeRecordingMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendTranscriptReady(ctx context.Context, data models.TranscriptReadyMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockMessageBuilder) SendMergeAudit(ctx context.Context, data models.MergeAuditMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}
