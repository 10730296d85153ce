// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/pkg/constants"
)

func setupMarkerHandler() (*MarkerHandler, *mocks.MockMeetingRepository, *mocks.MockMarkerRepository) {
	meetingRepo := &mocks.MockMeetingRepository{}
	markerRepo := &mocks.MockMarkerRepository{}
	graphClient := &mocks.MockGraphClient{}
	markerService := service.NewMarkerService(meetingRepo, markerRepo, graphClient, "org-1")
	return NewMarkerHandler(markerService), meetingRepo, markerRepo
}

func withPrincipal(req *http.Request, principal string) *http.Request {
	ctx := context.WithValue(req.Context(), constants.PrincipalContextID, principal)
	return req.WithContext(ctx)
}

func TestHandleCreateMarker(t *testing.T) {
	handler, meetingRepo, markerRepo := setupMarkerHandler()

	meetingRepo.On("Ensure", mock.Anything, "meet-1").Return(nil)
	markerRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Marker) bool {
		return m.MeetingID == "meet-1" && m.Label == "key moment" && m.UserID == "user-1"
	})).Return(nil)

	body := `{"meeting_id": "meet-1", "label": "key moment", "timestamp": "2025-06-01T10:30:00Z"}`
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/markers", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Marker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "meet-1", created.MeetingID)
	assert.NotEmpty(t, created.ID)
	markerRepo.AssertExpectations(t)
}

func TestHandleCreateMarkerWithoutPrincipal(t *testing.T) {
	handler, _, markerRepo := setupMarkerHandler()

	req := httptest.NewRequest(http.MethodPost, "/markers", strings.NewReader(`{"meeting_id": "m", "label": "x"}`))
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	markerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleCreateMarkerInvalidBody(t *testing.T) {
	handler, _, _ := setupMarkerHandler()

	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/markers", strings.NewReader(`{`)), "user-1")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreateMarkerValidationError(t *testing.T) {
	handler, _, _ := setupMarkerHandler()

	// Label missing.
	req := withPrincipal(httptest.NewRequest(http.MethodPost, "/markers", strings.NewReader(`{"meeting_id": "m"}`)), "user-1")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListMarkers(t *testing.T) {
	handler, _, markerRepo := setupMarkerHandler()

	markerRepo.On("ListByMeeting", mock.Anything, "meet-1").Return([]*models.Marker{
		{ID: "mk-1", MeetingID: "meet-1", Label: "one"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/markers?meeting_id=meet-1", nil)
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var markers []*models.Marker
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &markers))
	require.Len(t, markers, 1)
	assert.Equal(t, "mk-1", markers[0].ID)
}

func TestHandleListMarkersEmptyResult(t *testing.T) {
	handler, _, markerRepo := setupMarkerHandler()

	markerRepo.On("ListByMeeting", mock.Anything, "meet-1").Return([]*models.Marker(nil), nil)

	req := httptest.NewRequest(http.MethodGet, "/markers?meeting_id=meet-1", nil)
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)

	// Empty list, not null.
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleGetMeeting(t *testing.T) {
	handler, meetingRepo, _ := setupMarkerHandler()

	meetingRepo.On("Get", mock.Anything, "meet-1").Return(&models.Meeting{
		ID:             "meet-1",
		ArtifactsReady: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/meetings/meet-1", nil)
	req.SetPathValue("meetingID", "meet-1")
	rec := httptest.NewRecorder()

	handler.HandleGetMeeting(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var meeting models.Meeting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meeting))
	assert.Equal(t, "meet-1", meeting.ID)
	assert.True(t, meeting.ArtifactsReady)
}

func TestHandleGetMeetingNotFound(t *testing.T) {
	handler, meetingRepo, _ := setupMarkerHandler()

	meetingRepo.On("Get", mock.Anything, "meet-9").
		Return(nil, domain.NewNotFoundError("meeting not found"))

	req := httptest.NewRequest(http.MethodGet, "/meetings/meet-9", nil)
	req.SetPathValue("meetingID", "meet-9")
	rec := httptest.NewRecorder()

	handler.HandleGetMeeting(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListMarkersMissingMeetingID(t *testing.T) {
	handler, _, _ := setupMarkerHandler()

	req := httptest.NewRequest(http.MethodGet, "/markers", nil)
	rec := httptest.NewRecorder()

	handler.HandleList(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
