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

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// mockLifecycleHandler implements LifecycleHandler for testing
type mockLifecycleHandler struct {
	mock.Mock
}

func (m *mockLifecycleHandler) HandleLifecycleEvent(ctx context.Context, envelope models.NotificationEnvelope) error {
	args := m.Called(ctx, envelope)
	return args.Error(0)
}

const testClientState = "test-client-state"

func setupPipeline() (*NotificationPipeline, *mocks.MockMeetingRepository, *mocks.MockGraphClient, *mockLifecycleHandler) {
	meetingRepo := &mocks.MockMeetingRepository{}
	graphClient := &mocks.MockGraphClient{}
	lifecycle := &mockLifecycleHandler{}
	pipeline := NewNotificationPipeline(
		meetingRepo,
		NewArtifactResolver(graphClient),
		graphClient,
		lifecycle,
		testClientState,
	)
	return pipeline, meetingRepo, graphClient, lifecycle
}

func TestProcessMessageItemNotification(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	earlier := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{
		{ID: "rec-2", CreatedDateTime: later},
		{ID: "rec-1", CreatedDateTime: earlier},
	}, nil)

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil)
	tx.On("Upsert", mock.Anything, "meet-1", &earlier, "/users/org-1/onlineMeetings/meet-1").Return(nil)
	tx.On("Commit", mock.Anything).Return(nil)

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	meetingRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
	graphClient.AssertExpectations(t)
}

func TestProcessMessageMeetingWithoutRecordings(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{}, nil)

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil)
	tx.On("Upsert", mock.Anything, "meet-1", (*time.Time)(nil), "/users/org-1/onlineMeetings/meet-1").Return(nil)
	tx.On("Commit", mock.Anything).Return(nil)

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/onlineMeetings('meet-1')/transcripts('tr-1')",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	tx.AssertExpectations(t)
}

func TestProcessMessageDeduplicatesMeetings(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{}, nil).Once()

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil).Once()
	tx.On("Upsert", mock.Anything, "meet-1", (*time.Time)(nil), "/users/org-1/onlineMeetings/meet-1").Return(nil).Once()
	tx.On("Commit", mock.Anything).Return(nil).Once()

	// Two envelopes naming different artifacts of the same meeting.
	payload := `[
		{
			"type": "Microsoft.Graph.ChangeNotification",
			"data": {
				"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
				"clientState": "` + testClientState + `"
			}
		},
		{
			"type": "Microsoft.Graph.ChangeNotification",
			"data": {
				"resource": "users('org-1')/onlineMeetings('meet-1')/transcripts('tr-1')",
				"clientState": "` + testClientState + `"
			}
		}
	]`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	graphClient.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestProcessMessageClientStateMismatch(t *testing.T) {
	pipeline, meetingRepo, graphClient, lifecycle := setupPipeline()
	ctx := context.Background()

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
			"clientState": "wrong-secret"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	// The message is done: a forged or misdirected envelope is dropped
	// without a single downstream call.
	require.NoError(t, err)
	graphClient.AssertNotCalled(t, "ListRecordings", mock.Anything, mock.Anything, mock.Anything)
	meetingRepo.AssertNotCalled(t, "BeginWrite", mock.Anything)
	lifecycle.AssertNotCalled(t, "HandleLifecycleEvent", mock.Anything, mock.Anything)
}

func TestProcessMessageMalformedPayload(t *testing.T) {
	pipeline, meetingRepo, _, _ := setupPipeline()
	ctx := context.Background()

	err := pipeline.ProcessMessage(ctx, []byte(`{"type": "Microsoft.Graph`))

	// Malformed payloads never become processable, so they are dropped
	// instead of redelivered forever.
	require.NoError(t, err)
	meetingRepo.AssertNotCalled(t, "BeginWrite", mock.Anything)
}

func TestProcessMessageUnrecognizedResource(t *testing.T) {
	pipeline, meetingRepo, _, _ := setupPipeline()
	ctx := context.Background()

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/chats('c-1')/messages('m-1')",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	meetingRepo.AssertNotCalled(t, "BeginWrite", mock.Anything)
}

func TestProcessMessageLifecycleRouting(t *testing.T) {
	pipeline, meetingRepo, _, lifecycle := setupPipeline()
	ctx := context.Background()

	lifecycle.On("HandleLifecycleEvent", mock.Anything, mock.MatchedBy(func(env models.NotificationEnvelope) bool {
		return env.Data.LifecycleEvent == models.LifecycleReauthorizationRequired &&
			env.Data.SubscriptionID == "sub-1"
	})).Return(nil)

	payload := `{
		"eventType": "Microsoft.Graph.LifecycleNotification",
		"data": {
			"lifecycleEvent": "reauthorizationRequired",
			"subscriptionId": "sub-1",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	lifecycle.AssertExpectations(t)
	meetingRepo.AssertNotCalled(t, "BeginWrite", mock.Anything)
}

func TestProcessMessageLifecycleFailureDoesNotFailMessage(t *testing.T) {
	pipeline, _, graphClient, lifecycle := setupPipeline()
	ctx := context.Background()

	lifecycle.On("HandleLifecycleEvent", mock.Anything, mock.Anything).Return(errors.New("graph down"))

	payload := `{
		"eventType": "Microsoft.Graph.LifecycleNotification",
		"data": {
			"lifecycleEvent": "subscriptionRemoved",
			"subscriptionId": "sub-1",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	// A failed lifecycle reaction is not retried through the queue; the
	// renewal sweep is the backstop.
	require.NoError(t, err)
	lifecycle.AssertExpectations(t)
	graphClient.AssertNotCalled(t, "ListSubscriptions", mock.Anything)
}

func TestProcessMessageResolveFailureAbortsBatch(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return(nil, errors.New("HTTP 500"))

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil)
	tx.On("Rollback", mock.Anything).Return(nil)

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	// Resolution failure is transient; the error propagates so the message
	// is redelivered.
	require.Error(t, err)
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestProcessMessageCommitFailurePropagates(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{}, nil)

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil)
	tx.On("Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tx.On("Commit", mock.Anything).Return(domain.NewInternalError("commit failed"))

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"data": {
			"resource": "users('org-1')/onlineMeetings('meet-1')/recordings('rec-1')",
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
}

func TestProcessMessageAggregateDiscovery(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	start := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	graphClient.On("GetAllRecordings", mock.Anything, "org-1").Return([]models.MeetingArtifact{
		{ID: "rec-1", MeetingID: "meet-1", CreatedDateTime: start},
		{ID: "rec-2", MeetingID: "meet-2", CreatedDateTime: start},
		{ID: "rec-3", MeetingID: "meet-1", CreatedDateTime: start.Add(time.Hour)},
	}, nil)
	// meet-3 only ever produced a transcript; the union still finds it.
	graphClient.On("GetAllTranscripts", mock.Anything, "org-1").Return([]models.MeetingArtifact{
		{ID: "tr-1", MeetingID: "meet-2", CreatedDateTime: start},
		{ID: "tr-2", MeetingID: "meet-3", CreatedDateTime: start},
	}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{
		{ID: "rec-1", CreatedDateTime: start},
	}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-2").Return([]models.MeetingArtifact{
		{ID: "rec-2", CreatedDateTime: start},
	}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-3").Return([]models.MeetingArtifact{}, nil)

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil).Once()
	tx.On("Upsert", mock.Anything, "meet-1", &start, "/users/org-1/onlineMeetings/meet-1").Return(nil).Once()
	tx.On("Upsert", mock.Anything, "meet-2", &start, "/users/org-1/onlineMeetings/meet-2").Return(nil).Once()
	tx.On("Upsert", mock.Anything, "meet-3", (*time.Time)(nil), "/users/org-1/onlineMeetings/meet-3").Return(nil).Once()
	tx.On("Commit", mock.Anything).Return(nil).Once()

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"subject": "users('org-1')/onlineMeetings/getAllRecordings",
		"data": {
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	graphClient.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestProcessMessageAggregateFindsTranscriptOnlyMeeting(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	// A recordings-subscription event must still surface a meeting whose only
	// artifact so far is a transcript.
	graphClient.On("GetAllRecordings", mock.Anything, "org-1").Return([]models.MeetingArtifact{}, nil)
	graphClient.On("GetAllTranscripts", mock.Anything, "org-1").Return([]models.MeetingArtifact{
		{ID: "tr-1", MeetingID: "meet-1"},
	}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{}, nil)

	tx := &mocks.MockMeetingWriteTx{}
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx, nil).Once()
	tx.On("Upsert", mock.Anything, "meet-1", (*time.Time)(nil), "/users/org-1/onlineMeetings/meet-1").Return(nil).Once()
	tx.On("Commit", mock.Anything).Return(nil).Once()

	payload := `{
		"type": "Microsoft.Graph.ChangeNotification",
		"subject": "users('org-1')/onlineMeetings/getAllRecordings",
		"data": {
			"clientState": "` + testClientState + `"
		}
	}`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	graphClient.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestProcessMessageAggregateDeduplicatesOrganizer(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	// Both subscriptions firing for the same organizer in one message still
	// cause exactly one discovery pass.
	graphClient.On("GetAllRecordings", mock.Anything, "org-1").Return([]models.MeetingArtifact{}, nil).Once()
	graphClient.On("GetAllTranscripts", mock.Anything, "org-1").Return([]models.MeetingArtifact{}, nil).Once()

	payload := `[
		{"type": "Microsoft.Graph.ChangeNotification", "data": {"resource": "users('org-1')/onlineMeetings/getAllRecordings", "clientState": "` + testClientState + `"}},
		{"type": "Microsoft.Graph.ChangeNotification", "data": {"resource": "users('org-1')/onlineMeetings/getAllTranscripts", "clientState": "` + testClientState + `"}}
	]`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	require.NoError(t, err)
	graphClient.AssertExpectations(t)
	meetingRepo.AssertNotCalled(t, "BeginWrite", mock.Anything)
}

func TestProcessMessageOrganizerFailuresAreIsolated(t *testing.T) {
	pipeline, meetingRepo, graphClient, _ := setupPipeline()
	ctx := context.Background()

	start := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	// org-1 succeeds, org-2 fails on discovery, org-3 succeeds.
	graphClient.On("GetAllRecordings", mock.Anything, "org-1").Return([]models.MeetingArtifact{
		{ID: "rec-1", MeetingID: "meet-1", CreatedDateTime: start},
	}, nil)
	graphClient.On("GetAllRecordings", mock.Anything, "org-2").Return(nil, errors.New("HTTP 503"))
	graphClient.On("GetAllRecordings", mock.Anything, "org-3").Return([]models.MeetingArtifact{
		{ID: "rec-3", MeetingID: "meet-3", CreatedDateTime: start},
	}, nil)
	graphClient.On("GetAllTranscripts", mock.Anything, "org-1").Return([]models.MeetingArtifact{}, nil)
	graphClient.On("GetAllTranscripts", mock.Anything, "org-3").Return([]models.MeetingArtifact{}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-1", "meet-1").Return([]models.MeetingArtifact{
		{ID: "rec-1", CreatedDateTime: start},
	}, nil)
	graphClient.On("ListRecordings", mock.Anything, "org-3", "meet-3").Return([]models.MeetingArtifact{
		{ID: "rec-3", CreatedDateTime: start},
	}, nil)

	tx1 := &mocks.MockMeetingWriteTx{}
	tx1.On("Upsert", mock.Anything, "meet-1", &start, "/users/org-1/onlineMeetings/meet-1").Return(nil).Once()
	tx1.On("Commit", mock.Anything).Return(nil).Once()
	tx3 := &mocks.MockMeetingWriteTx{}
	tx3.On("Upsert", mock.Anything, "meet-3", &start, "/users/org-3/onlineMeetings/meet-3").Return(nil).Once()
	tx3.On("Commit", mock.Anything).Return(nil).Once()
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx1, nil).Once()
	meetingRepo.On("BeginWrite", mock.Anything).Return(tx3, nil).Once()

	payload := `[
		{"type": "Microsoft.Graph.ChangeNotification", "data": {"resource": "users('org-1')/onlineMeetings/getAllRecordings", "clientState": "` + testClientState + `"}},
		{"type": "Microsoft.Graph.ChangeNotification", "data": {"resource": "users('org-2')/onlineMeetings/getAllRecordings", "clientState": "` + testClientState + `"}},
		{"type": "Microsoft.Graph.ChangeNotification", "data": {"resource": "users('org-3')/onlineMeetings/getAllRecordings", "clientState": "` + testClientState + `"}}
	]`

	err := pipeline.ProcessMessage(ctx, []byte(payload))

	// One organizer failing does not fail the message nor block the others.
	require.NoError(t, err)
	graphClient.AssertExpectations(t)
	tx1.AssertExpectations(t)
	tx3.AssertExpectations(t)
}

func TestDecodeEnvelopes(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		expectError bool
		expectCount int
	}{
		{
			name:        "single object",
			payload:     `{"type": "Microsoft.Graph.ChangeNotification"}`,
			expectCount: 1,
		},
		{
			name:        "array",
			payload:     `[{"type": "a"}, {"type": "b"}]`,
			expectCount: 2,
		},
		{
			name:        "array with leading whitespace",
			payload:     "\n\t [{\"type\": \"a\"}]",
			expectCount: 1,
		},
		{
			name:        "empty array",
			payload:     `[]`,
			expectCount: 0,
		},
		{
			name:        "truncated object",
			payload:     `{"type": "a"`,
			expectError: true,
		},
		{
			name:        "empty payload",
			payload:     ``,
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			envelopes, err := decodeEnvelopes([]byte(tc.payload))
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, envelopes, tc.expectCount)
		})
	}
}
