// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// SessionStatus is the lifecycle state of a recording session.
type SessionStatus string

const (
	// SessionStatusRecording means chunk uploads are still being accepted.
	SessionStatusRecording SessionStatus = "recording"
	// SessionStatusProcessing means finalize is running the pipeline.
	SessionStatusProcessing SessionStatus = "processing"
	// SessionStatusCompleted is terminal: the transcript was persisted.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusFailed is terminal: the pipeline could not produce a transcript.
	SessionStatusFailed SessionStatus = "failed"
)

// RecordingSession tracks one long-form audio recording from chunk intake
// through finalize. The UID is an opaque client-generated token.
type RecordingSession struct {
	UID                string        `json:"uid"`
	UserID             string        `json:"user_id"`
	TeamID             string        `json:"team_id"`
	ClientUID          string        `json:"client_uid,omitempty"` // optional linked client profile
	Status             SessionStatus `json:"status"`
	TotalChunks        int           `json:"total_chunks"` // monotonically non-decreasing
	FinalTranscription string        `json:"final_transcription,omitempty"`
	ErrorMessage       string        `json:"error_message,omitempty"`
	StartedAt          time.Time     `json:"started_at"`
	FinalizedAt        *time.Time    `json:"finalized_at,omitempty"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the session reached a final state.
func (s *RecordingSession) IsTerminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

// CanTransition reports whether moving to the given status is a legal forward
// transition. Sessions only ever move recording -> processing -> completed|failed.
func (s *RecordingSession) CanTransition(to SessionStatus) bool {
	switch s.Status {
	case SessionStatusRecording:
		return to == SessionStatusProcessing
	case SessionStatusProcessing:
		return to == SessionStatusCompleted || to == SessionStatusFailed
	default:
		return false
	}
}

// RecordChunk bumps TotalChunks for a newly stored part index. TotalChunks
// never decreases, so out-of-order uploads are safe.
func (s *RecordingSession) RecordChunk(partIndex int) {
	if partIndex+1 > s.TotalChunks {
		s.TotalChunks = partIndex + 1
	}
	s.UpdatedAt = time.Now().UTC()
}
