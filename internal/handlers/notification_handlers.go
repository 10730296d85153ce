// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package handlers connects the transports to the service layer.
package handlers

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

// NotificationHandler consumes queue messages and drives the pipeline.
type NotificationHandler struct {
	pipeline *service.NotificationPipeline
}

// Ensure NotificationHandler implements the messaging contract.
var _ domain.MessageHandler = (*NotificationHandler)(nil)

// NewNotificationHandler creates a queue handler around the pipeline.
func NewNotificationHandler(pipeline *service.NotificationPipeline) *NotificationHandler {
	return &NotificationHandler{pipeline: pipeline}
}

// HandlerReady checks if the handler can process messages.
func (h *NotificationHandler) HandlerReady() bool {
	return h.pipeline != nil && h.pipeline.ServiceReady()
}

// HandleMessage processes one queue delivery. Transient failures Nak the
// message so the transport redelivers it; everything else acks, including
// payloads the pipeline decided to drop.
func (h *NotificationHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	ctx = logging.AppendCtx(ctx, slog.String("subject", msg.Subject()))

	if !h.HandlerReady() {
		slog.ErrorContext(ctx, "handler not ready, requeueing message")
		if err := msg.Nak(); err != nil {
			slog.ErrorContext(ctx, "error naking message", logging.ErrKey, err)
		}
		return
	}

	if err := h.pipeline.ProcessMessage(ctx, msg.Data()); err != nil {
		slog.ErrorContext(ctx, "notification processing failed, requeueing message", logging.ErrKey, err)
		if err := msg.Nak(); err != nil {
			slog.ErrorContext(ctx, "error naking message", logging.ErrKey, err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		slog.ErrorContext(ctx, "error acking message", logging.ErrKey, err)
	}
}
