// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// AudioRecordStatus is the downstream processing state of an audio record.
type AudioRecordStatus string

const (
	// AudioRecordStatusPending means the transcript is awaiting LLM extraction.
	AudioRecordStatusPending AudioRecordStatus = "pending"
	// AudioRecordStatusExtracted means structured fields were extracted and a
	// pending change was created for review.
	AudioRecordStatusExtracted AudioRecordStatus = "extracted"
	// AudioRecordStatusFailed means extraction failed permanently.
	AudioRecordStatusFailed AudioRecordStatus = "failed"
)

// AudioRecord is the transcript-bearing record created when a recording
// session finalizes successfully. The extraction service consumes it and
// reports back with structured fields.
type AudioRecord struct {
	UID                 string            `json:"uid"`
	SessionUID          string            `json:"session_uid"`
	ClientUID           string            `json:"client_uid,omitempty"`
	UserID              string            `json:"user_id"`
	TeamID              string            `json:"team_id"`
	Transcription       string            `json:"transcription"`
	Language            string            `json:"language,omitempty"`
	DurationSeconds     float64           `json:"duration_seconds,omitempty"`
	FileSizeBytes       int64             `json:"file_size_bytes,omitempty"`
	DiarizationApplied  bool              `json:"diarization_applied"` // false when the full-audio fallback was transcribed
	Status              AudioRecordStatus `json:"status"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}
