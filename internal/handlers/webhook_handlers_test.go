// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

func TestHandleNotificationValidationHandshake(t *testing.T) {
	publisher := &mocks.MockQueuePublisher{}
	handler := NewWebhookHandler(service.NewWebhookService(publisher))

	req := httptest.NewRequest(http.MethodPost, "/webhook/graph?validationToken=abc%20123", nil)
	rec := httptest.NewRecorder()

	handler.HandleNotification(rec, req)

	// The token must come back verbatim as plain text, and nothing is
	// enqueued for a handshake.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc 123", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	publisher.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}

func TestHandleNotificationEnqueues(t *testing.T) {
	publisher := &mocks.MockQueuePublisher{}
	handler := NewWebhookHandler(service.NewWebhookService(publisher))

	body := `{"type": "Microsoft.Graph.ChangeNotification"}`
	publisher.On("PublishNotification", mock.Anything, []byte(body)).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/graph", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleNotification(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	publisher.AssertExpectations(t)
}

func TestHandleNotificationQueueOutage(t *testing.T) {
	publisher := &mocks.MockQueuePublisher{}
	handler := NewWebhookHandler(service.NewWebhookService(publisher))

	publisher.On("PublishNotification", mock.Anything, mock.Anything).Return(assert.AnError)

	req := httptest.NewRequest(http.MethodPost, "/webhook/graph", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.HandleNotification(rec, req)

	// Non-2xx so the platform retries the delivery.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleNotificationEmptyBody(t *testing.T) {
	publisher := &mocks.MockQueuePublisher{}
	handler := NewWebhookHandler(service.NewWebhookService(publisher))

	req := httptest.NewRequest(http.MethodPost, "/webhook/graph", strings.NewReader(""))
	rec := httptest.NewRecorder()

	handler.HandleNotification(rec, req)

	// The receiver acknowledges everything it can read; nothing reaches the
	// queue for an empty body.
	assert.Equal(t, http.StatusAccepted, rec.Code)
	publisher.AssertNotCalled(t, "PublishNotification", mock.Anything, mock.Anything)
}
