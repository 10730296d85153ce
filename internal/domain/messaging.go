// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "context"

// Message represents one queue delivery. The transport redelivers any
// message that is Nak'd or never acknowledged, so handlers must be
// idempotent.
type Message interface {
	Subject() string
	Data() []byte
	// Ack marks the message as processed (or permanently unprocessable).
	Ack() error
	// Nak asks the transport to redeliver the message.
	Nak() error
}

// MessageHandler defines how the service handles incoming queue messages.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// QueuePublisher enqueues raw notification payloads for asynchronous
// processing.
type QueuePublisher interface {
	PublishNotification(ctx context.Context, payload []byte) error
}
