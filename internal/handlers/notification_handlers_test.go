// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

func setupNotificationHandler() (*NotificationHandler, *mocks.MockMeetingRepository, *mocks.MockGraphClient) {
	meetingRepo := &mocks.MockMeetingRepository{}
	graphClient := &mocks.MockGraphClient{}
	subscriptionService := service.NewSubscriptionService(graphClient, service.SubscriptionConfig{})
	pipeline := service.NewNotificationPipeline(
		meetingRepo,
		service.NewArtifactResolver(graphClient),
		graphClient,
		subscriptionService,
		"",
	)
	return NewNotificationHandler(pipeline), meetingRepo, graphClient
}

func TestHandleMessageAcksDroppedPayload(t *testing.T) {
	handler, _, _ := setupNotificationHandler()

	msg := &mocks.MockMessage{}
	msg.On("Subject").Return("teams.notifications")
	msg.On("Data").Return([]byte(`not json`))
	msg.On("Ack").Return(nil)

	handler.HandleMessage(context.Background(), msg)

	// Malformed payloads are acked, not redelivered.
	msg.AssertExpectations(t)
	msg.AssertNotCalled(t, "Nak")
}

func TestHandleMessageNaksOnTransientFailure(t *testing.T) {
	handler, meetingRepo, graphClient := setupNotificationHandler()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").
		Return(nil, assert.AnError)
	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil)
	tx.On("Rollback", mock.Anything).Return(nil)

	msg := &mocks.MockMessage{}
	msg.On("Subject").Return("teams.notifications")
	msg.On("Data").Return([]byte(`{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')"}
	}`))
	msg.On("Nak").Return(nil)

	handler.HandleMessage(context.Background(), msg)

	msg.AssertExpectations(t)
	msg.AssertNotCalled(t, "Ack")
}

func TestHandlerReady(t *testing.T) {
	handler, _, _ := setupNotificationHandler()
	assert.True(t, handler.HandlerReady())

	var empty NotificationHandler
	assert.False(t, empty.HandlerReady())
}
