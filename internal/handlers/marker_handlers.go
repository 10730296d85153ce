// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/service"
)

// MarkerHandler serves the marker CRUD endpoints.
type MarkerHandler struct {
	markerService *service.MarkerService
}

// NewMarkerHandler creates the marker HTTP handler.
func NewMarkerHandler(markerService *service.MarkerService) *MarkerHandler {
	return &MarkerHandler{markerService: markerService}
}

// createMarkerPayload is the request body of POST /markers.
type createMarkerPayload struct {
	MeetingID string     `json:"meeting_id,omitempty"`
	JoinURL   string     `json:"join_url,omitempty"`
	Label     string     `json:"label"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// HandleCreate implements POST /markers.
func (h *MarkerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		writeError(w, domain.NewUnauthorizedError("missing principal"))
		return
	}

	var payload createMarkerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, domain.NewValidationError("invalid request body", err))
		return
	}

	req := service.CreateMarkerRequest{
		MeetingID: payload.MeetingID,
		JoinURL:   payload.JoinURL,
		Label:     payload.Label,
	}
	if payload.Timestamp != nil {
		req.Timestamp = *payload.Timestamp
	}

	marker, err := h.markerService.CreateMarker(ctx, req, principal)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, marker)
}

// HandleList implements GET /markers?meeting_id=...
func (h *MarkerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	meetingID := r.URL.Query().Get("meeting_id")
	markers, err := h.markerService.ListMarkers(ctx, meetingID)
	if err != nil {
		writeError(w, err)
		return
	}
	if markers == nil {
		markers = []*models.Marker{}
	}

	writeJSON(w, http.StatusOK, markers)
}

// HandleGetMeeting implements GET /meetings/{meetingID}.
func (h *MarkerHandler) HandleGetMeeting(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.markerService.GetMeeting(r.Context(), r.PathValue("meetingID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meeting)
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("error encoding response body", logging.ErrKey, err)
	}
}

// writeError maps a domain error to its HTTP status with a JSON body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, domain.HTTPStatus(err), map[string]string{"error": err.Error()})
}
