// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// SpeakerSegment is one contiguous stretch of speech attributed to a speaker.
// Times are in seconds relative to the start of the recording.
type SpeakerSegment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// DiarizationStats aggregates per-speaker talk time for one diarization run.
// "Courtier" is the advisor side of the conversation; everything else is the
// client side.
type DiarizationStats struct {
	CourtierDuration    float64 `json:"courtier_duration"`
	ClientDuration      float64 `json:"client_duration"`
	CourtierNumSegments int     `json:"courtier_num_segments"`
	ClientNumSegments   int     `json:"client_num_segments"`
}

// DiarizationResult is the structured output of the external speaker
// separation model. It mirrors the result file the model writes, so the JSON
// tags are the wire format.
type DiarizationResult struct {
	Success           bool             `json:"success"`
	TotalSpeakers     int              `json:"total_speakers"`
	CourtierSpeaker   string           `json:"courtier_speaker"`
	ClientSpeakers    []string         `json:"client_speakers"`
	ClientSegments    []SpeakerSegment `json:"client_segments"`
	Stats             DiarizationStats `json:"stats"`
	SingleSpeakerMode bool             `json:"single_speaker_mode"`
	Error             string           `json:"error,omitempty"`
}

// DiarizationLogStatus classifies the outcome of one diarization attempt.
type DiarizationLogStatus string

const (
	DiarizationLogStatusSuccess  DiarizationLogStatus = "success"
	DiarizationLogStatusFailed   DiarizationLogStatus = "failed"
	DiarizationLogStatusTimeout  DiarizationLogStatus = "timeout"
	DiarizationLogStatusFallback DiarizationLogStatus = "fallback"
	DiarizationLogStatusSkipped  DiarizationLogStatus = "skipped"
)

// DiarizationLog is the immutable audit record written once per diarization
// attempt. It carries enough context to reconstruct a postmortem without the
// session or audio record surviving.
type DiarizationLog struct {
	UID                  string               `json:"uid"`
	AudioRecordUID       string               `json:"audio_record_uid,omitempty"`
	SessionUID           string               `json:"session_uid,omitempty"`
	TeamID               string               `json:"team_id,omitempty"`
	UserID               string               `json:"user_id,omitempty"`
	Status               DiarizationLogStatus `json:"status"`
	DurationMs           int64                `json:"duration_ms"`
	AudioDurationSeconds float64              `json:"audio_duration_seconds,omitempty"`
	FileSizeBytes        int64                `json:"file_size_bytes,omitempty"`
	SpeakersDetected     int                  `json:"speakers_detected,omitempty"`
	Stats                DiarizationStats     `json:"stats"`
	ErrorMessage         string               `json:"error_message,omitempty"`
	ErrorCode            string               `json:"error_code,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}

// HealthCheckItem is one named probe result in a health check payload.
type HealthCheckItem struct {
	Status  string `json:"status"` // "ok", "warning" or "error"
	Message string `json:"message"`
}

// HealthCheckResult is the structured output of the diarization health probe.
type HealthCheckResult struct {
	Available bool                       `json:"available"`
	Checks    map[string]HealthCheckItem `json:"checks"`
	Warnings  []string                   `json:"warnings"`
	Errors    []string                   `json:"errors"`
	CheckedAt time.Time                  `json:"checked_at"`
}

// TranscriptionOutput is what a transcription backend returns for one audio
// file. JSON tags match the local engine's stdout contract.
type TranscriptionOutput struct {
	Text                string  `json:"text"`
	Language            string  `json:"language,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	Error               string  `json:"error,omitempty"`
}
