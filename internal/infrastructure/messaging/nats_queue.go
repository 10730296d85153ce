// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package messaging implements the queue transport on NATS JetStream.
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/pkg/constants"
)

// EnsureNotificationStream creates or updates the work-queue stream that
// buffers inbound Graph notifications between the webhook receiver and the
// pipeline.
func EnsureNotificationStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      constants.NotificationStreamName,
		Subjects:  []string{constants.NotificationSubject},
		Retention: jetstream.WorkQueuePolicy,
	})
}

// EnsurePipelineConsumer creates or updates the durable consumer the
// pipeline reads from. Explicit acks plus a bounded delivery count give
// at-least-once processing with a dead-letter backstop.
func EnsurePipelineConsumer(ctx context.Context, stream jetstream.Stream) (jetstream.Consumer, error) {
	return stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:    constants.NotificationConsumerDurable,
		AckPolicy:  jetstream.AckExplicitPolicy,
		AckWait:    2 * time.Minute,
		MaxDeliver: constants.NotificationMaxDeliver,
	})
}

// QueuePublisher publishes notification payloads to the work-queue stream.
type QueuePublisher struct {
	js jetstream.JetStream
}

// Ensure QueuePublisher implements the domain contract.
var _ domain.QueuePublisher = (*QueuePublisher)(nil)

// NewQueuePublisher creates a publisher bound to the notification subject.
func NewQueuePublisher(js jetstream.JetStream) *QueuePublisher {
	return &QueuePublisher{js: js}
}

// PublishNotification enqueues one raw notification payload.
func (p *QueuePublisher) PublishNotification(ctx context.Context, payload []byte) error {
	_, err := p.js.Publish(ctx, constants.NotificationSubject, payload)
	if err != nil {
		slog.ErrorContext(ctx, "error publishing notification to queue", logging.ErrKey, err)
		return err
	}
	slog.DebugContext(ctx, "published notification to queue", "subject", constants.NotificationSubject)
	return nil
}

// natsMessage adapts a JetStream message to the domain.Message contract.
type natsMessage struct {
	msg jetstream.Msg
}

func (m *natsMessage) Subject() string { return m.msg.Subject() }
func (m *natsMessage) Data() []byte    { return m.msg.Data() }
func (m *natsMessage) Ack() error      { return m.msg.Ack() }
func (m *natsMessage) Nak() error      { return m.msg.Nak() }

// Consume starts delivering queue messages to the handler. Each message is
// processed by one worker invocation; the consumer may dispatch multiple
// messages concurrently across invocations.
func Consume(ctx context.Context, consumer jetstream.Consumer, handler domain.MessageHandler) (jetstream.ConsumeContext, error) {
	return consumer.Consume(func(msg jetstream.Msg) {
		handler.HandleMessage(ctx, &natsMessage{msg: msg})
	})
}
