// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
)

// WebhookService accepts inbound notification payloads from the HTTP
// receiver and hands them to the queue. Keeping the receiver this thin lets
// it acknowledge deliveries inside the platform's webhook timeout regardless
// of how long the pipeline takes.
type WebhookService struct {
	publisher domain.QueuePublisher
}

// NewWebhookService creates a webhook service.
func NewWebhookService(publisher domain.QueuePublisher) *WebhookService {
	return &WebhookService{publisher: publisher}
}

// ServiceReady checks if the service can enqueue notifications.
func (s *WebhookService) ServiceReady() bool {
	return s.publisher != nil
}

// EnqueueNotification publishes one raw notification payload for
// asynchronous processing. The payload is not decoded here; the pipeline owns
// all parsing and validation, so even an empty or garbled body is accepted
// and dropped downstream rather than bounced back to the platform.
func (s *WebhookService) EnqueueNotification(ctx context.Context, payload []byte) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		slog.WarnContext(ctx, "ignoring empty notification payload")
		return nil
	}
	if err := s.publisher.PublishNotification(ctx, payload); err != nil {
		return domain.NewUnavailableError("failed to enqueue notification", err)
	}
	slog.DebugContext(ctx, "enqueued notification payload", "bytes", len(payload))
	return nil
}
