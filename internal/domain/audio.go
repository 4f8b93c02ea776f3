// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"io"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// ChunkStore owns the bytes of uploaded audio chunks on disk. Session
// metadata lives in the RecordingSessionRepository; the chunk store only
// deals in files keyed by session UID and part index.
type ChunkStore interface {
	// StoreChunk persists one chunk and returns its filesystem location.
	StoreChunk(ctx context.Context, sessionUID string, partIndex int, content io.Reader) (string, error)
	// ListChunksInOrder returns chunk paths for indexes 0..totalChunks-1 in
	// strict index order. Handling of missing indexes follows the configured
	// gap policy.
	ListChunksInOrder(ctx context.Context, sessionUID string, totalChunks int) ([]string, error)
	// PurgeSession removes every chunk file and the session directory.
	// Idempotent: purging an unknown session is not an error.
	PurgeSession(ctx context.Context, sessionUID string) error
}

// ScratchStore hands out collision-free paths for intermediate audio files
// and sweeps aged ones.
type ScratchStore interface {
	// ScratchPath returns a unique path in the scratch directory with the
	// given name hint and extension.
	ScratchPath(hint, ext string) string
	// SweepOlderThan removes scratch files older than the given age. Returns
	// the paths removed (or that would be removed when dryRun is set).
	SweepOlderThan(ctx context.Context, ageHours int, dryRun bool) ([]string, error)
}

// AudioConcatenator joins ordered chunk files into one continuous stream.
type AudioConcatenator interface {
	Concatenate(ctx context.Context, orderedChunkPaths []string) (string, error)
}

// SegmentExtractor trims an audio file down to the given speaker segments,
// preserving the caller's segment order. Returns an empty path when there are
// no segments to extract.
type SegmentExtractor interface {
	ExtractSegments(ctx context.Context, audioPath string, segments []models.SpeakerSegment) (string, error)
}

// DiarizationEngine separates speakers in a full recording.
type DiarizationEngine interface {
	// IsAvailable reports whether the external model runtime is usable. The
	// result is computed once per process.
	IsAvailable(ctx context.Context) bool
	// Diarize runs the external model. When the engine is unavailable it
	// returns a non-success result without attempting a subprocess call.
	Diarize(ctx context.Context, audioPath string) (*models.DiarizationResult, error)
	// HealthCheck runs the lightweight probe, cached with a short TTL unless
	// forceRefresh is set.
	HealthCheck(ctx context.Context, forceRefresh bool) (*models.HealthCheckResult, error)
}

// Transcriber converts one audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*models.TranscriptionOutput, error)
}
