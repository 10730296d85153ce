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

// MockMeetingWriteTx implements domain.MeetingWriteTx for testing
type MockMeetingWriteTx struct {
	mock.Mock
}

func (m *MockMeetingWriteTx) Upsert(ctx context.Context, meetingID string, recordingStart *time.Time, baseRef string) error {
	args := m.Called(ctx, meetingID, recordingStart, baseRef)
	return args.Error(0)
}

func (m *MockMeetingWriteTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMeetingWriteTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMeetingRepository implements domain.MeetingRepository for testing
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) BeginWrite(ctx context.Context) (domain.MeetingWriteTx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.MeetingWriteTx), args.Error(1)
}

func (m *MockMeetingRepository) Get(ctx context.Context, meetingID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Ensure(ctx context.Context, meetingID string) error {
	args := m.Called(ctx, meetingID)
	return args.Error(0)
}
