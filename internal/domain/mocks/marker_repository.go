// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// MockMarkerRepository implements domain.MarkerRepository for testing
type MockMarkerRepository struct {
	mock.Mock
}

func (m *MockMarkerRepository) Create(ctx context.Context, marker *models.Marker) error {
	args := m.Called(ctx, marker)
	return args.Error(0)
}

func (m *MockMarkerRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*models.Marker, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Marker), args.Error(1)
}

func (m *MockMarkerRepository) ReconcileOffsets(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
