// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

func TestResolvePicksEarliestRecording(t *testing.T) {
	graphClient := &mocks.MockGraphClient{}
	resolver := NewArtifactResolver(graphClient)
	ctx := context.Background()

	earliest := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{
		{ID: "rec-2", CreatedDateTime: earliest.Add(45 * time.Minute)},
		{ID: "rec-1", CreatedDateTime: earliest},
		{ID: "rec-3", CreatedDateTime: earliest.Add(2 * time.Hour)},
	}, nil)

	start, baseRef, err := resolver.Resolve(ctx, "org-1", "meet-1")

	require.NoError(t, err)
	require.NotNil(t, start)
	assert.True(t, start.Equal(earliest))
	assert.Equal(t, "/users/org-1/onlineMeetings/meet-1", baseRef)
}

func TestResolveNoRecordings(t *testing.T) {
	graphClient := &mocks.MockGraphClient{}
	resolver := NewArtifactResolver(graphClient)
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{}, nil)

	start, baseRef, err := resolver.Resolve(ctx, "org-1", "meet-1")

	// A meeting with no recordings still resolves; the base path does not
	// depend on any artifact existing.
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Equal(t, "/users/org-1/onlineMeetings/meet-1", baseRef)
}

func TestResolveIgnoresZeroTimestamps(t *testing.T) {
	graphClient := &mocks.MockGraphClient{}
	resolver := NewArtifactResolver(graphClient)
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{
		{ID: "rec-1"},
		{ID: "rec-2", CreatedDateTime: created},
	}, nil)

	start, _, err := resolver.Resolve(ctx, "org-1", "meet-1")

	require.NoError(t, err)
	require.NotNil(t, start)
	assert.True(t, start.Equal(created))
}

func TestResolveListingFailure(t *testing.T) {
	graphClient := &mocks.MockGraphClient{}
	resolver := NewArtifactResolver(graphClient)
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return(nil, errors.New("HTTP 429"))

	_, _, err := resolver.Resolve(ctx, "org-1", "meet-1")

	require.Error(t, err)
}
