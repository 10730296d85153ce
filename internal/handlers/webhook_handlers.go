// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

// maxWebhookBodyBytes bounds inbound webhook payloads.
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler terminates the Graph notification webhook.
type WebhookHandler struct {
	webhookService *service.WebhookService
}

// NewWebhookHandler creates the webhook HTTP handler.
func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// HandleNotification implements POST /webhook/graph.
//
// Subscription creation triggers a validation handshake: the platform calls
// the endpoint with a validationToken query parameter and expects the token
// echoed back as plain text with a 200. Real notifications are enqueued and
// acknowledged with a 202 before any processing happens.
func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token := r.URL.Query().Get("validationToken"); token != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(token))
		slog.InfoContext(ctx, "answered subscription validation handshake")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		slog.WarnContext(ctx, "error reading webhook body", logging.ErrKey, err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.webhookService.EnqueueNotification(ctx, body); err != nil {
		// The platform retries on non-2xx, so a queue outage surfaces as a
		// retryable failure rather than silent loss.
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
