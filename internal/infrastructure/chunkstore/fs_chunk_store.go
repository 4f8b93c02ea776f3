// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package chunkstore persists uploaded audio chunks on the local filesystem.
// Each session owns an exclusive directory; nothing is shared across sessions.
package chunkstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/patrimonia-app/audio-intake-service/internal/config"
	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// chunkContainer is the container extension clients upload chunks in.
const chunkContainer = "webm"

// FSChunkStore stores chunks under baseDir/<sessionUID>/.
type FSChunkStore struct {
	baseDir   string
	gapPolicy config.GapPolicy
}

// NewFSChunkStore creates a chunk store rooted at baseDir with the given gap
// policy for missing part indexes.
func NewFSChunkStore(baseDir string, gapPolicy config.GapPolicy) *FSChunkStore {
	return &FSChunkStore{
		baseDir:   baseDir,
		gapPolicy: gapPolicy,
	}
}

// chunkPath returns the canonical location of one chunk file.
func (s *FSChunkStore) chunkPath(sessionUID string, partIndex int) string {
	return filepath.Join(s.baseDir, sessionUID,
		fmt.Sprintf("%s_part_%d.%s", sessionUID, partIndex, chunkContainer))
}

// validateSessionUID rejects UIDs that could escape the base directory.
func validateSessionUID(sessionUID string) error {
	if sessionUID == "" {
		return domain.NewValidationError("session UID is required")
	}
	if strings.ContainsAny(sessionUID, "/\\") || sessionUID == "." || sessionUID == ".." {
		return domain.NewValidationError("invalid session UID")
	}
	return nil
}

// StoreChunk persists one chunk and returns its filesystem location.
func (s *FSChunkStore) StoreChunk(ctx context.Context, sessionUID string, partIndex int, content io.Reader) (string, error) {
	if err := validateSessionUID(sessionUID); err != nil {
		return "", err
	}
	if partIndex < 0 {
		return "", domain.NewValidationError("part index must not be negative")
	}

	sessionDir := filepath.Join(s.baseDir, sessionUID)
	if err := os.MkdirAll(sessionDir, 0o750); err != nil {
		slog.ErrorContext(ctx, "error creating session chunk directory",
			logging.ErrKey, err, "session_uid", sessionUID)
		return "", domain.NewInternalError("failed to create session chunk directory", err)
	}

	path := s.chunkPath(sessionUID, partIndex)
	f, err := os.Create(path)
	if err != nil {
		slog.ErrorContext(ctx, "error creating chunk file",
			logging.ErrKey, err, "session_uid", sessionUID, "part_index", partIndex)
		return "", domain.NewInternalError("failed to create chunk file", err)
	}

	written, err := io.Copy(f, content)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A half-written chunk is worse than a missing one.
		_ = os.Remove(path)
		slog.ErrorContext(ctx, "error writing chunk file",
			logging.ErrKey, err, "session_uid", sessionUID, "part_index", partIndex)
		return "", domain.NewInternalError("failed to write chunk file", err)
	}

	slog.DebugContext(ctx, "stored audio chunk",
		"session_uid", sessionUID, "part_index", partIndex, "bytes", written)

	return path, nil
}

// ListChunksInOrder returns chunk paths for indexes 0..totalChunks-1 in
// strict index order. A missing index follows the configured gap policy:
// skipped with a warning, or a validation error aborting finalize.
func (s *FSChunkStore) ListChunksInOrder(ctx context.Context, sessionUID string, totalChunks int) ([]string, error) {
	if err := validateSessionUID(sessionUID); err != nil {
		return nil, err
	}

	var paths []string
	for i := 0; i < totalChunks; i++ {
		path := s.chunkPath(sessionUID, i)
		if _, err := os.Stat(path); err != nil {
			if s.gapPolicy == config.GapPolicyFail {
				return nil, domain.NewValidationError(
					fmt.Sprintf("chunk %d of session %s is missing", i, sessionUID), err)
			}
			slog.WarnContext(ctx, "missing audio chunk, skipping",
				"session_uid", sessionUID, "part_index", i)
			continue
		}
		paths = append(paths, path)
	}

	return paths, nil
}

// PurgeSession removes every chunk file and the session's directory.
// Idempotent: purging a session that has no directory is a no-op.
func (s *FSChunkStore) PurgeSession(ctx context.Context, sessionUID string) error {
	if err := validateSessionUID(sessionUID); err != nil {
		return err
	}

	sessionDir := filepath.Join(s.baseDir, sessionUID)
	if err := os.RemoveAll(sessionDir); err != nil {
		slog.ErrorContext(ctx, "error purging session chunks",
			logging.ErrKey, err, "session_uid", sessionUID)
		return domain.NewInternalError("failed to purge session chunks", err)
	}

	slog.DebugContext(ctx, "purged session chunks", "session_uid", sessionUID)
	return nil
}
