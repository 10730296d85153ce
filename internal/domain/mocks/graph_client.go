// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// MockGraphClient implements domain.GraphClient for testing
type MockGraphClient struct {
	mock.Mock
}

func (m *MockGraphClient) ListRecordings(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error) {
	args := m.Called(ctx, organizerID, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MeetingArtifact), args.Error(1)
}

func (m *MockGraphClient) ListTranscripts(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error) {
	args := m.Called(ctx, organizerID, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MeetingArtifact), args.Error(1)
}

func (m *MockGraphClient) GetAllRecordings(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MeetingArtifact), args.Error(1)
}

func (m *MockGraphClient) GetAllTranscripts(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MeetingArtifact), args.Error(1)
}

func (m *MockGraphClient) ResolveMeetingByJoinURL(ctx context.Context, joinURL, organizerID string) (string, error) {
	args := m.Called(ctx, joinURL, organizerID)
	return args.String(0), args.Error(1)
}

func (m *MockGraphClient) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*models.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockGraphClient) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Subscription), args.Error(1)
}

func (m *MockGraphClient) RenewSubscription(ctx context.Context, subscriptionID string, expiration time.Time) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, expiration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockGraphClient) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockGraphClient) ReauthorizeSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}
