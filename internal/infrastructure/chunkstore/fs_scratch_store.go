// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package chunkstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// FSScratchStore hands out unique paths for intermediate audio files
// (concatenated, extracted, diarization results) and sweeps aged leftovers.
// Names embed a UUID so concurrent pipeline runs on the same host never
// collide.
type FSScratchStore struct {
	dir string
}

// NewFSScratchStore creates a scratch store rooted at dir.
func NewFSScratchStore(dir string) *FSScratchStore {
	return &FSScratchStore{dir: dir}
}

// ScratchPath returns a unique path in the scratch directory.
func (s *FSScratchStore) ScratchPath(hint, ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", hint, uuid.New().String(), ext))
}

// SweepOlderThan removes scratch files older than ageHours. With dryRun set
// it only reports what would be removed. Normal pipeline runs clean up after
// themselves; this catches files orphaned by crashed workers.
func (s *FSScratchStore) SweepOlderThan(ctx context.Context, ageHours int, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, domain.NewInternalError("failed to read scratch directory", err)
	}

	cutoff := time.Now().Add(-time.Duration(ageHours) * time.Hour)

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if !dryRun {
			if err := os.Remove(path); err != nil {
				slog.WarnContext(ctx, "failed to remove scratch file",
					logging.ErrKey, err, "path", path)
				continue
			}
		}
		removed = append(removed, path)
	}

	slog.InfoContext(ctx, "swept scratch directory",
		"removed", len(removed), "age_hours", ageHours, "dry_run", dryRun)

	return removed, nil
}
