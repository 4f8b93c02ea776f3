// Copyright The Patrimonia Authors.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"
)

// NatsMsg adapts a *nats.Msg to the domain.Message interface.
type NatsMsg struct {
	msg *nats.Msg
}

// NewNatsMsg wraps an incoming NATS message.
func NewNatsMsg(msg *nats.Msg) *NatsMsg {
	return &NatsMsg{msg: msg}
}

// Subject returns the message subject.
func (m *NatsMsg) Subject() string {
	return m.msg.Subject
}

// Data returns the raw message payload.
func (m *NatsMsg) Data() []byte {
	return m.msg.Data
}

// Respond replies to the message when a reply subject is set.
func (m *NatsMsg) Respond(data []byte) error {
	return m.msg.Respond(data)
}

// HasReply reports whether the sender expects a response.
func (m *NatsMsg) HasReply() bool {
	return m.msg.Reply != ""
}
