// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// NATS subjects owned by the audio intake service.
const (
	// RecordingFinalizeSubject carries finalize jobs to the pipeline workers.
	RecordingFinalizeSubject = "audio-intake.recording.finalize"

	// TranscriptReadySubject notifies the external extraction service that a
	// transcript-bearing audio record is ready for structured extraction.
	TranscriptReadySubject = "audio-intake.transcript.ready"

	// ExtractionCompletedSubject carries the extraction service's structured
	// output back to this service, which turns it into a pending change.
	ExtractionCompletedSubject = "audio-intake.extraction.completed"

	// MergeAuditSubject receives an audit event for every applied review.
	MergeAuditSubject = "audio-intake.merge.audit"
)

// IntakeQueue is the NATS queue group name for the pipeline workers. Queue
// semantics give single delivery per job across the worker fleet, which is
// the dedup layer behind the at-most-one-finalize-in-flight assumption.
const IntakeQueue = "audio-intake-queue"

// FinalizeRecordingMessage is the job payload enqueued when a user finalizes
// a recording session. Encoded with msgpack on the wire.
type FinalizeRecordingMessage struct {
	SessionUID  string    `msgpack:"session_uid"`
	UserID      string    `msgpack:"user_id"`
	RequestedAt time.Time `msgpack:"requested_at"`
}

// TranscriptReadyMessage announces a freshly persisted transcript.
type TranscriptReadyMessage struct {
	AudioRecordUID string `msgpack:"audio_record_uid"`
	SessionUID     string `msgpack:"session_uid"`
	ClientUID      string `msgpack:"client_uid,omitempty"`
	UserID         string `msgpack:"user_id"`
	TeamID         string `msgpack:"team_id"`
}

// ExtractionCompletedMessage is what the extraction collaborator sends back
// once the LLM parsed a transcript into structured fields.
type ExtractionCompletedMessage struct {
	AudioRecordUID string                      `msgpack:"audio_record_uid"`
	ClientUID      string                      `msgpack:"client_uid"`
	UserID         string                      `msgpack:"user_id"`
	TeamID         string                      `msgpack:"team_id"`
	ExtractedData  map[string]any              `msgpack:"extracted_data"`
	RelationalData map[string][]map[string]any `msgpack:"relational_data,omitempty"`
}

// MergeAuditMessage records the outcome of one review for the audit trail.
type MergeAuditMessage struct {
	PendingChangeUID string    `msgpack:"pending_change_uid"`
	ClientUID        string    `msgpack:"client_uid"`
	ReviewedBy       string    `msgpack:"reviewed_by"`
	AppliedFields    []string  `msgpack:"applied_fields"`
	RejectedFields   []string  `msgpack:"rejected_fields"`
	AppliedAt        time.Time `msgpack:"applied_at"`
}
