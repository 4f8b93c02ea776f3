// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// MessageBuilder publishes the service's outbound messages.
type MessageBuilder interface {
	SendFinalizeRecording(ctx context.Context, data models.FinalizeRecordingMessage) error
	SendTranscriptReady(ctx context.Context, data models.TranscriptReadyMessage) error
	SendMergeAudit(ctx context.Context, data models.MergeAuditMessage) error
}
