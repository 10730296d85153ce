// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// MarkerService implements the marker CRUD operations and the offset
// reconciliation job.
type MarkerService struct {
	meetingRepo domain.MeetingRepository
	markerRepo  domain.MarkerRepository
	graph       domain.GraphClient
	// organizerID scopes join-URL resolution to the watched organizer.
	organizerID string
	now         func() time.Time
}

// NewMarkerService creates a marker service.
func NewMarkerService(
	meetingRepo domain.MeetingRepository,
	markerRepo domain.MarkerRepository,
	graph domain.GraphClient,
	organizerID string,
) *MarkerService {
	return &MarkerService{
		meetingRepo: meetingRepo,
		markerRepo:  markerRepo,
		graph:       graph,
		organizerID: organizerID,
		now:         time.Now,
	}
}

// ServiceReady checks if the service is ready to serve marker requests.
func (s *MarkerService) ServiceReady() bool {
	return s.meetingRepo != nil && s.markerRepo != nil && s.graph != nil
}

// CreateMarkerRequest carries the inputs for placing a marker. Exactly one of
// MeetingID and JoinURL must be set; a marker placed by join URL has the
// meeting ID resolved through Graph first.
type CreateMarkerRequest struct {
	MeetingID string
	JoinURL   string
	Label     string
	Timestamp time.Time
}

// CreateMarker places a marker for the authenticated user. The referenced
// meeting row is created on the fly when the notification pipeline has not
// seen the meeting yet; the marker's recording offset stays unset until the
// reconciliation job can derive it.
func (s *MarkerService) CreateMarker(ctx context.Context, req CreateMarkerRequest, userID string) (*models.Marker, error) {
	if req.Label == "" {
		return nil, domain.NewValidationError("marker label is required")
	}
	if req.MeetingID == "" && req.JoinURL == "" {
		return nil, domain.NewValidationError("either meeting ID or join URL is required")
	}
	if req.MeetingID != "" && req.JoinURL != "" {
		return nil, domain.NewValidationError("meeting ID and join URL are mutually exclusive")
	}

	meetingID := req.MeetingID
	if meetingID == "" {
		resolved, err := s.graph.ResolveMeetingByJoinURL(ctx, req.JoinURL, s.organizerID)
		if err != nil {
			slog.WarnContext(ctx, "could not resolve meeting from join URL", logging.ErrKey, err)
			return nil, err
		}
		meetingID = resolved
	}

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	if err := s.meetingRepo.Ensure(ctx, meetingID); err != nil {
		return nil, err
	}

	marker := &models.Marker{
		ID:           uuid.New().String(),
		MeetingID:    meetingID,
		Label:        req.Label,
		UTCTimestamp: timestamp.UTC(),
		UserID:       userID,
	}
	if err := s.markerRepo.Create(ctx, marker); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "created marker",
		"marker_id", marker.ID,
		"meeting_id", meetingID,
	)
	return marker, nil
}

// GetMeeting returns the stored row of one meeting, letting marker clients
// check whether the recording start is known and offsets are derivable.
func (s *MarkerService) GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	if meetingID == "" {
		return nil, domain.NewValidationError("meeting ID is required")
	}
	return s.meetingRepo.Get(ctx, meetingID)
}

// ListMarkers returns the markers of one meeting ordered by timestamp.
func (s *MarkerService) ListMarkers(ctx context.Context, meetingID string) ([]*models.Marker, error) {
	if meetingID == "" {
		return nil, domain.NewValidationError("meeting ID is required")
	}
	return s.markerRepo.ListByMeeting(ctx, meetingID)
}

// ReconcileOffsets derives recording offsets for markers whose meeting now
// has a known recording start. Safe to run repeatedly; already-reconciled
// markers are untouched.
func (s *MarkerService) ReconcileOffsets(ctx context.Context) (int64, error) {
	updated, err := s.markerRepo.ReconcileOffsets(ctx)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		slog.InfoContext(ctx, "reconciled marker offsets", "updated", updated)
	}
	return updated, nil
}
