// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// MockChunkStore implements ChunkStore for testing
type MockChunkStore struct {
	mock.Mock
}

func (m *MockChunkStore) StoreChunk(ctx context.Context, sessionUID string, partIndex int, content io.Reader) (string, error) {
	args := m.Called(ctx, sessionUID, partIndex, content)
	return args.String(0), args.Error(1)
}

func (m *MockChunkStore) ListChunksInOrder(ctx context.Context, sessionUID string, totalChunks int) ([]string, error) {
	args := m.Called(ctx, sessionUID, totalChunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockChunkStore) PurgeSession(ctx context.Context, sessionUID string) error {
	args := m.Called(ctx, sessionUID)
	return args.Error(0)
}

// MockScratchStore implements ScratchStore for testing
type MockScratchStore struct {
	mock.Mock
}

func (m *MockScratchStore) ScratchPath(hint, ext string) string {
	args := m.Called(hint, ext)
	return args.String(0)
}

func (m *MockScratchStore) SweepOlderThan(ctx context.Context, ageHours int, dryRun bool) ([]string, error) {
	args := m.Called(ctx, ageHours, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAudioConcatenator implements AudioConcatenator for testing
type MockAudioConcatenator struct {
	mock.Mock
}

func (m *MockAudioConcatenator) Concatenate(ctx context.Context, orderedChunkPaths []string) (string, error) {
	args := m.Called(ctx, orderedChunkPaths)
	return args.String(0), args.Error(1)
}

// MockSegmentExtractor implements SegmentExtractor for testing
type MockSegmentExtractor struct {
	mock.Mock
}

func (m *MockSegmentExtractor) ExtractSegments(ctx context.Context, audioPath string, segments []models.SpeakerSegment) (string, error) {
	args := m.Called(ctx, audioPath, segments)
	return args.String(0), args.Error(1)
}

// MockDiarizationEngine implements DiarizationEngine for testing
type MockDiarizationEngine struct {
	mock.Mock
}

func (m *MockDiarizationEngine) IsAvailable(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockDiarizationEngine) Diarize(ctx context.Context, audioPath string) (*models.DiarizationResult, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiarizationResult), args.Error(1)
}

func (m *MockDiarizationEngine) HealthCheck(ctx context.Context, forceRefresh bool) (*models.HealthCheckResult, error) {
	args := m.Called(ctx, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HealthCheckResult), args.Error(1)
}

// MockTranscriber implements Transcriber for testing
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionOutput, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TranscriptionOutput), args.Error(1)
}
