// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
	"github.com/patrimonia-app/audio-intake-service/pkg/concurrent"
)

// RecordingPipelineService drives a recording session through finalize:
// concatenate, diarize, extract client audio, transcribe, persist the
// transcript, and hand it off to extraction.
type RecordingPipelineService struct {
	sessionRepository        domain.RecordingSessionRepository
	audioRecordRepository    domain.AudioRecordRepository
	diarizationLogRepository domain.DiarizationLogRepository
	chunkStore               domain.ChunkStore
	concatenator             domain.AudioConcatenator
	diarizationEngine        domain.DiarizationEngine
	segmentExtractor         domain.SegmentExtractor
	transcriber              domain.Transcriber
	messageBuilder           domain.MessageBuilder
	config                   ServiceConfig
	cleanupPool              *concurrent.WorkerPool

	// inFlight guards against two finalize runs racing on one session within
	// this process. Across the fleet the queue group gives single delivery.
	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewRecordingPipelineService creates a new RecordingPipelineService.
func NewRecordingPipelineService(
	sessionRepository domain.RecordingSessionRepository,
	audioRecordRepository domain.AudioRecordRepository,
	diarizationLogRepository domain.DiarizationLogRepository,
	chunkStore domain.ChunkStore,
	concatenator domain.AudioConcatenator,
	diarizationEngine domain.DiarizationEngine,
	segmentExtractor domain.SegmentExtractor,
	transcriber domain.Transcriber,
	messageBuilder domain.MessageBuilder,
	serviceConfig ServiceConfig,
) *RecordingPipelineService {
	return &RecordingPipelineService{
		sessionRepository:        sessionRepository,
		audioRecordRepository:    audioRecordRepository,
		diarizationLogRepository: diarizationLogRepository,
		chunkStore:               chunkStore,
		concatenator:             concatenator,
		diarizationEngine:        diarizationEngine,
		segmentExtractor:         segmentExtractor,
		transcriber:              transcriber,
		messageBuilder:           messageBuilder,
		config:                   serviceConfig,
		cleanupPool:              concurrent.NewWorkerPool(serviceConfig.CleanupWorkers),
		inFlight:                 make(map[string]struct{}),
	}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *RecordingPipelineService) ServiceReady() bool {
	return s.sessionRepository != nil &&
		s.audioRecordRepository != nil &&
		s.diarizationLogRepository != nil &&
		s.chunkStore != nil &&
		s.concatenator != nil &&
		s.diarizationEngine != nil &&
		s.segmentExtractor != nil &&
		s.transcriber != nil &&
		s.messageBuilder != nil
}

// Finalize runs the full pipeline for one session. At most one finalize per
// session may be in flight; a second concurrent call gets a conflict error.
func (s *RecordingPipelineService) Finalize(ctx context.Context, sessionUID, userID string) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("service not initialized")
	}

	if !s.acquireFinalize(sessionUID) {
		return domain.NewConflictError("finalize already in flight for session")
	}
	defer s.releaseFinalize(sessionUID)

	ctx = logging.AppendCtx(ctx, slog.String("session_uid", sessionUID))

	session, revision, err := s.sessionRepository.GetWithRevision(ctx, sessionUID)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		slog.WarnContext(ctx, "finalize rejected, session owned by another user",
			"owner", session.UserID, "requester", userID)
		return domain.NewForbiddenError("session belongs to another user")
	}
	if !session.CanTransition(models.SessionStatusProcessing) {
		return domain.NewConflictError("session is not in a finalizable state")
	}

	session.Status = models.SessionStatusProcessing
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		slog.ErrorContext(ctx, "error transitioning session to processing", logging.ErrKey, err)
		return err
	}

	transcript, diarizationApplied, err := s.runPipeline(ctx, session)
	if err != nil {
		s.markFailed(ctx, sessionUID, err)
		return err
	}

	recordUID, err := s.persistTranscript(ctx, session, transcript, diarizationApplied)
	if err != nil {
		s.markFailed(ctx, sessionUID, err)
		return err
	}

	// Chunk purge is cleanup after the point of no return: a purge failure
	// leaves orphan files for the retention job, never a failed session.
	if err := s.chunkStore.PurgeSession(ctx, sessionUID); err != nil {
		slog.WarnContext(ctx, "error purging session chunks", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "recording session finalized",
		"audio_record_uid", recordUID,
		"diarization_applied", diarizationApplied,
		"transcript_chars", len(transcript),
	)

	return nil
}

// runPipeline produces the final transcript: concatenation, the diarization
// branch, and transcription. Scratch files are removed on every path.
func (s *RecordingPipelineService) runPipeline(ctx context.Context, session *models.RecordingSession) (string, bool, error) {
	chunkPaths, err := s.chunkStore.ListChunksInOrder(ctx, session.UID, session.TotalChunks)
	if err != nil {
		return "", false, err
	}
	if len(chunkPaths) == 0 {
		return "", false, domain.NewValidationError("no audio chunks found for session")
	}

	var scratch []string
	defer func() {
		s.cleanupScratch(ctx, scratch)
	}()

	concatPath, err := s.concatenator.Concatenate(ctx, chunkPaths)
	if err != nil {
		return "", false, err
	}
	scratch = append(scratch, concatPath)

	audioPath, diarizationApplied, err := s.selectTranscriptionAudio(ctx, session, concatPath, &scratch)
	if err != nil {
		return "", false, err
	}

	out, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", false, domain.NewInternalError("pipeline produced an empty transcript")
	}

	return out.Text, diarizationApplied, nil
}

// selectTranscriptionAudio runs diarization and returns the audio file to
// transcribe: the client-only extract when diarization delivered usable
// segments, otherwise the full concatenated audio as a degraded fallback.
// Every attempt leaves a diarization log entry.
func (s *RecordingPipelineService) selectTranscriptionAudio(
	ctx context.Context,
	session *models.RecordingSession,
	concatPath string,
	scratch *[]string,
) (string, bool, error) {
	started := time.Now()

	var fileSize int64
	if stat, statErr := os.Stat(concatPath); statErr == nil {
		fileSize = stat.Size()
	}

	if !s.diarizationEngine.IsAvailable(ctx) {
		slog.WarnContext(ctx, "diarization unavailable, transcribing full audio")
		s.writeDiarizationLog(ctx, session, nil, models.DiarizationLogStatusSkipped,
			time.Since(started), fileSize, "diarization engine unavailable")
		return concatPath, false, nil
	}

	result, err := s.diarizationEngine.Diarize(ctx, concatPath)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeTimeout {
			// Timeouts are structural: the session fails so operators see a
			// rising timeout rate instead of silently degraded transcripts.
			s.writeDiarizationLog(ctx, session, nil, models.DiarizationLogStatusTimeout,
				time.Since(started), fileSize, err.Error())
			return "", false, err
		}
		slog.WarnContext(ctx, "diarization failed, transcribing full audio", logging.ErrKey, err)
		s.writeDiarizationLog(ctx, session, nil, models.DiarizationLogStatusFailed,
			time.Since(started), fileSize, err.Error())
		return concatPath, false, nil
	}

	if !result.Success || len(result.ClientSegments) == 0 {
		slog.WarnContext(ctx, "diarization returned no client segments, transcribing full audio",
			"success", result.Success,
			"single_speaker_mode", result.SingleSpeakerMode,
			"diarization_error", result.Error,
		)
		s.writeDiarizationLog(ctx, session, result, models.DiarizationLogStatusFallback,
			time.Since(started), fileSize, result.Error)
		return concatPath, false, nil
	}

	s.writeDiarizationLog(ctx, session, result, models.DiarizationLogStatusSuccess,
		time.Since(started), fileSize, "")

	extractedPath, err := s.segmentExtractor.ExtractSegments(ctx, concatPath, result.ClientSegments)
	if err != nil {
		slog.WarnContext(ctx, "segment extraction failed, transcribing full audio", logging.ErrKey, err)
		return concatPath, false, nil
	}
	*scratch = append(*scratch, extractedPath)

	return extractedPath, true, nil
}

// persistTranscript creates the transcript-bearing audio record, announces
// it to the extraction service, and completes the session.
func (s *RecordingPipelineService) persistTranscript(
	ctx context.Context,
	session *models.RecordingSession,
	transcript string,
	diarizationApplied bool,
) (string, error) {
	now := time.Now().UTC()
	record := &models.AudioRecord{
		UID:                uuid.New().String(),
		SessionUID:         session.UID,
		ClientUID:          session.ClientUID,
		UserID:             session.UserID,
		TeamID:             session.TeamID,
		Transcription:      transcript,
		DiarizationApplied: diarizationApplied,
		Status:             models.AudioRecordStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.audioRecordRepository.Create(ctx, record); err != nil {
		slog.ErrorContext(ctx, "error creating audio record", logging.ErrKey, err)
		return "", err
	}

	err := s.messageBuilder.SendTranscriptReady(ctx, models.TranscriptReadyMessage{
		AudioRecordUID: record.UID,
		SessionUID:     session.UID,
		ClientUID:      session.ClientUID,
		UserID:         session.UserID,
		TeamID:         session.TeamID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error announcing transcript", logging.ErrKey, err, "audio_record_uid", record.UID)
		return "", domain.NewInternalError("error announcing transcript", err)
	}

	session, revision, err := s.sessionRepository.GetWithRevision(ctx, session.UID)
	if err != nil {
		return "", err
	}
	finalizedAt := time.Now().UTC()
	session.Status = models.SessionStatusCompleted
	session.FinalTranscription = transcript
	session.FinalizedAt = &finalizedAt
	session.UpdatedAt = finalizedAt
	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		slog.ErrorContext(ctx, "error completing session", logging.ErrKey, err)
		return "", err
	}

	return record.UID, nil
}

// markFailed moves the session to the failed state, best effort: the
// pipeline error is what the caller sees, not a bookkeeping failure.
func (s *RecordingPipelineService) markFailed(ctx context.Context, sessionUID string, cause error) {
	session, revision, err := s.sessionRepository.GetWithRevision(ctx, sessionUID)
	if err != nil {
		slog.ErrorContext(ctx, "error loading session to mark failed", logging.ErrKey, err)
		return
	}
	now := time.Now().UTC()
	session.Status = models.SessionStatusFailed
	session.ErrorMessage = cause.Error()
	session.FinalizedAt = &now
	session.UpdatedAt = now
	if err := s.sessionRepository.Update(ctx, session, revision); err != nil {
		slog.ErrorContext(ctx, "error marking session failed", logging.ErrKey, err)
	}
}

// writeDiarizationLog records one diarization attempt. Log writes never fail
// the pipeline.
func (s *RecordingPipelineService) writeDiarizationLog(
	ctx context.Context,
	session *models.RecordingSession,
	result *models.DiarizationResult,
	status models.DiarizationLogStatus,
	elapsed time.Duration,
	fileSize int64,
	errorMessage string,
) {
	entry := &models.DiarizationLog{
		UID:           uuid.New().String(),
		SessionUID:    session.UID,
		TeamID:        session.TeamID,
		UserID:        session.UserID,
		Status:        status,
		DurationMs:    elapsed.Milliseconds(),
		FileSizeBytes: fileSize,
		ErrorMessage:  errorMessage,
		CreatedAt:     time.Now().UTC(),
	}
	if result != nil {
		entry.SpeakersDetected = result.TotalSpeakers
		entry.Stats = result.Stats
		entry.AudioDurationSeconds = result.Stats.CourtierDuration + result.Stats.ClientDuration
	}
	if err := s.diarizationLogRepository.Create(ctx, entry); err != nil {
		slog.WarnContext(ctx, "error writing diarization log", logging.ErrKey, err)
	}
}

// cleanupScratch deletes intermediate audio files concurrently.
func (s *RecordingPipelineService) cleanupScratch(ctx context.Context, paths []string) {
	tasks := make([]func() error, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p := p
		tasks = append(tasks, func() error {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		})
	}
	for _, err := range s.cleanupPool.RunAll(ctx, tasks...) {
		slog.WarnContext(ctx, "error removing scratch file", logging.ErrKey, err)
	}
}

func (s *RecordingPipelineService) acquireFinalize(sessionUID string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, busy := s.inFlight[sessionUID]; busy {
		return false
	}
	s.inFlight[sessionUID] = struct{}{}
	return true
}

func (s *RecordingPipelineService) releaseFinalize(sessionUID string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, sessionUID)
}
