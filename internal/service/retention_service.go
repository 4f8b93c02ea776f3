// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/pkg/concurrent"
)

// CleanupReport summarizes one retention run.
type CleanupReport struct {
	DryRun          bool     `json:"dry_run"`
	ScratchRemoved  []string `json:"scratch_removed,omitempty"`
	SessionsPurged  []string `json:"sessions_purged,omitempty"`
	RecordsDeleted  []string `json:"records_deleted,omitempty"`
	SessionsSkipped int      `json:"sessions_skipped"`
}

// RetentionService runs the age-based cleanup jobs: scratch files left by
// crashed pipeline runs, and terminal sessions past the retention window.
type RetentionService struct {
	sessionRepository     domain.RecordingSessionRepository
	audioRecordRepository domain.AudioRecordRepository
	chunkStore            domain.ChunkStore
	scratchStore          domain.ScratchStore
	cleanupPool           *concurrent.WorkerPool
}

// NewRetentionService creates a new RetentionService.
func NewRetentionService(
	sessionRepository domain.RecordingSessionRepository,
	audioRecordRepository domain.AudioRecordRepository,
	chunkStore domain.ChunkStore,
	scratchStore domain.ScratchStore,
	serviceConfig ServiceConfig,
) *RetentionService {
	return &RetentionService{
		sessionRepository:     sessionRepository,
		audioRecordRepository: audioRecordRepository,
		chunkStore:            chunkStore,
		scratchStore:          scratchStore,
		cleanupPool:           concurrent.NewWorkerPool(serviceConfig.CleanupWorkers),
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *RetentionService) ServiceReady() bool {
	return s.sessionRepository != nil &&
		s.audioRecordRepository != nil &&
		s.chunkStore != nil &&
		s.scratchStore != nil
}

// CleanupTemp sweeps scratch files older than the given age. A normal
// pipeline run removes its own scratch; this job catches files orphaned by
// crashes and kills.
func (s *RetentionService) CleanupTemp(ctx context.Context, ageHours int, dryRun bool) (*CleanupReport, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if ageHours <= 0 {
		return nil, domain.NewValidationError("age hours must be positive")
	}

	removed, err := s.scratchStore.SweepOlderThan(ctx, ageHours, dryRun)
	if err != nil {
		slog.ErrorContext(ctx, "error sweeping scratch files", logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "scratch cleanup completed",
		"removed", len(removed), "age_hours", ageHours, "dry_run", dryRun)

	return &CleanupReport{DryRun: dryRun, ScratchRemoved: removed}, nil
}

// PurgeOld removes terminal sessions older than the retention window: chunk
// files and the session record itself. With includeTranscriptions the
// transcript-bearing audio records older than the window go too. A team
// filter narrows the purge to one team.
func (s *RetentionService) PurgeOld(ctx context.Context, days int, dryRun, includeTranscriptions bool, teamID string) (*CleanupReport, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if days <= 0 {
		return nil, domain.NewValidationError("days must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	report := &CleanupReport{DryRun: dryRun}

	sessions, err := s.sessionRepository.ListAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing sessions", logging.ErrKey, err)
		return nil, err
	}

	var purgeTasks []func() error
	for _, session := range sessions {
		if teamID != "" && session.TeamID != teamID {
			continue
		}
		// Abandoned recording sessions count once they stopped receiving
		// chunks; in-window and processing sessions are left alone.
		if session.Status == models.SessionStatusProcessing || session.UpdatedAt.After(cutoff) {
			report.SessionsSkipped++
			continue
		}

		report.SessionsPurged = append(report.SessionsPurged, session.UID)
		if dryRun {
			continue
		}
		session := session
		purgeTasks = append(purgeTasks, func() error {
			if err := s.chunkStore.PurgeSession(ctx, session.UID); err != nil {
				return err
			}
			return s.sessionRepository.Delete(ctx, session.UID)
		})
	}

	for _, err := range s.cleanupPool.RunAll(ctx, purgeTasks...) {
		slog.WarnContext(ctx, "error purging session", logging.ErrKey, err)
	}

	if includeTranscriptions {
		if err := s.purgeOldRecords(ctx, cutoff, dryRun, teamID, report); err != nil {
			return nil, err
		}
	}

	slog.InfoContext(ctx, "retention purge completed",
		"sessions_purged", len(report.SessionsPurged),
		"records_deleted", len(report.RecordsDeleted),
		"sessions_skipped", report.SessionsSkipped,
		"dry_run", dryRun,
	)

	return report, nil
}

func (s *RetentionService) purgeOldRecords(ctx context.Context, cutoff time.Time, dryRun bool, teamID string, report *CleanupReport) error {
	records, err := s.audioRecordRepository.ListAll(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing audio records", logging.ErrKey, err)
		return err
	}

	for _, record := range records {
		if teamID != "" && record.TeamID != teamID {
			continue
		}
		if record.CreatedAt.After(cutoff) {
			continue
		}
		report.RecordsDeleted = append(report.RecordsDeleted, record.UID)
		if dryRun {
			continue
		}
		if err := s.audioRecordRepository.Delete(ctx, record.UID); err != nil {
			slog.WarnContext(ctx, "error deleting audio record", logging.ErrKey, err, "audio_record_uid", record.UID)
		}
	}
	return nil
}
