// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service implements the business logic of the Teams artifact
// service: the notification pipeline, subscription lifecycle management, and
// the marker CRUD operations.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// ArtifactResolver turns a (organizer, meeting) pair into the metadata the
// store persists: the recording start time and the stable artifact base path.
type ArtifactResolver struct {
	graph domain.GraphClient
}

// NewArtifactResolver creates a resolver on top of the Graph client.
func NewArtifactResolver(graph domain.GraphClient) *ArtifactResolver {
	return &ArtifactResolver{graph: graph}
}

// ServiceReady checks if the service is ready to resolve artifacts.
func (r *ArtifactResolver) ServiceReady() bool {
	return r.graph != nil
}

// Resolve fetches the meeting's recordings and derives the persisted
// metadata. A meeting with no recordings resolves successfully with a nil
// start time; only an API failure is an error, and callers treat it as fatal
// for the batch so the message is redelivered.
func (r *ArtifactResolver) Resolve(ctx context.Context, organizerID, meetingID string) (*time.Time, string, error) {
	recordings, err := r.graph.ListRecordings(ctx, organizerID, meetingID)
	if err != nil {
		slog.ErrorContext(ctx, "error listing meeting recordings",
			logging.ErrKey, err,
			"organizer_id", organizerID,
			"meeting_id", meetingID,
		)
		return nil, "", err
	}

	var start *time.Time
	for _, recording := range recordings {
		if recording.CreatedDateTime.IsZero() {
			continue
		}
		if start == nil || recording.CreatedDateTime.Before(*start) {
			created := recording.CreatedDateTime
			start = &created
		}
	}

	baseRef := models.MeetingArtifactBasePath(organizerID, meetingID)

	slog.DebugContext(ctx, "resolved meeting artifacts",
		"meeting_id", meetingID,
		"recording_count", len(recordings),
		"has_start", start != nil,
	)
	return start, baseRef, nil
}
