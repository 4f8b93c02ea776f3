// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/patrimonia-app/audio-intake-service/internal/domain"
	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// criticalFailureStreak is the consecutive-failure count at which the stats
// report escalates to critical.
const criticalFailureStreak = 3

// DiarizationStatsReport aggregates diarization outcomes over a window for
// operator monitoring.
type DiarizationStatsReport struct {
	WindowDays      int            `json:"window_days"`
	TotalAttempts   int            `json:"total_attempts"`
	SuccessRate     float64        `json:"success_rate"` // successes / attempts, 0..1
	StatusBreakdown map[string]int `json:"status_breakdown"`
	TopErrors       []ErrorCount   `json:"top_errors,omitempty"`
	ConsecutiveFail int            `json:"consecutive_failures"`
	Critical        bool           `json:"critical"` // consecutive failures reached the alert threshold
	AvgDurationMs   int64          `json:"avg_duration_ms"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// ErrorCount is one error message and how often it occurred in the window.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// DiarizationStatsService aggregates the diarization audit log.
type DiarizationStatsService struct {
	diarizationLogRepository domain.DiarizationLogRepository
}

// NewDiarizationStatsService creates a new DiarizationStatsService.
func NewDiarizationStatsService(diarizationLogRepository domain.DiarizationLogRepository) *DiarizationStatsService {
	return &DiarizationStatsService{diarizationLogRepository: diarizationLogRepository}
}

// ServiceReady checks if the service is ready to serve requests.
func (s *DiarizationStatsService) ServiceReady() bool {
	return s.diarizationLogRepository != nil
}

// Stats aggregates the diarization log over the trailing window.
func (s *DiarizationStatsService) Stats(ctx context.Context, days int) (*DiarizationStatsReport, error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("service not initialized")
	}
	if days <= 0 {
		return nil, domain.NewValidationError("days must be positive")
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	logs, err := s.diarizationLogRepository.ListSince(ctx, since)
	if err != nil {
		slog.ErrorContext(ctx, "error listing diarization logs", logging.ErrKey, err)
		return nil, err
	}

	report := &DiarizationStatsReport{
		WindowDays:      days,
		TotalAttempts:   len(logs),
		StatusBreakdown: make(map[string]int),
		GeneratedAt:     time.Now().UTC(),
	}

	var successes int
	var totalDurationMs int64
	errorCounts := make(map[string]int)
	streak := 0

	// Logs arrive oldest first, so the running streak ends up being the
	// current consecutive-failure count.
	for _, entry := range logs {
		report.StatusBreakdown[string(entry.Status)]++
		totalDurationMs += entry.DurationMs

		switch entry.Status {
		case models.DiarizationLogStatusSuccess:
			successes++
			streak = 0
		case models.DiarizationLogStatusFailed, models.DiarizationLogStatusTimeout:
			streak++
			if entry.ErrorMessage != "" {
				errorCounts[entry.ErrorMessage]++
			}
		default:
			// Fallback and skipped entries are degraded outcomes, not engine
			// failures; they break neither the streak nor the success count.
		}
	}

	if len(logs) > 0 {
		report.SuccessRate = float64(successes) / float64(len(logs))
		report.AvgDurationMs = totalDurationMs / int64(len(logs))
	}
	report.ConsecutiveFail = streak
	report.Critical = streak >= criticalFailureStreak

	for message, count := range errorCounts {
		report.TopErrors = append(report.TopErrors, ErrorCount{Message: message, Count: count})
	}
	sort.Slice(report.TopErrors, func(i, j int) bool {
		if report.TopErrors[i].Count != report.TopErrors[j].Count {
			return report.TopErrors[i].Count > report.TopErrors[j].Count
		}
		return report.TopErrors[i].Message < report.TopErrors[j].Message
	})
	if len(report.TopErrors) > 5 {
		report.TopErrors = report.TopErrors[:5]
	}

	if report.Critical {
		slog.WarnContext(ctx, "diarization failing repeatedly", logging.PriorityCritical(),
			"consecutive_failures", streak)
	}

	return report, nil
}
