// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

// Package messaging publishes the service's outbound NATS messages.
package messaging

import (
	"context"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/patrimonia-app/audio-intake-service/internal/domain/models"
	"github.com/patrimonia-app/audio-intake-service/internal/logging"
)

// INatsConn is the NATS connection interface the message builder needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder encodes and sends messages to the NATS server. Job payloads
// are msgpack-encoded; they are internal to this service and its workers.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// sendMessage sends the message to the NATS server.
func (m *MessageBuilder) sendMessage(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

// sendEncoded marshals the payload with msgpack and publishes it.
func (m *MessageBuilder) sendEncoded(ctx context.Context, subject string, payload any) error {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message payload", logging.ErrKey, err, "subject", subject)
		return err
	}
	return m.sendMessage(ctx, subject, data)
}

// SendFinalizeRecording enqueues a finalize job for the pipeline workers.
func (m *MessageBuilder) SendFinalizeRecording(ctx context.Context, data models.FinalizeRecordingMessage) error {
	return m.sendEncoded(ctx, models.RecordingFinalizeSubject, data)
}

// SendTranscriptReady notifies the extraction service of a new transcript.
func (m *MessageBuilder) SendTranscriptReady(ctx context.Context, data models.TranscriptReadyMessage) error {
	return m.sendEncoded(ctx, models.TranscriptReadySubject, data)
}

// SendMergeAudit publishes an audit event for an applied review.
func (m *MessageBuilder) SendMergeAudit(ctx context.Context, data models.MergeAuditMessage) error {
	return m.sendEncoded(ctx, models.MergeAuditSubject, data)
}
