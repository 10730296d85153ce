// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package models contains the domain models for the Teams artifact service.
package models

import "time"

// Meeting is the durable record of a Teams online meeting whose recording
// artifacts this service tracks. A row is created lazily the first time a
// notification or a marker references the meeting ID and is never deleted
// by this service.
type Meeting struct {
	// ID is the opaque platform-assigned online meeting ID.
	ID string `json:"id"`
	// ArtifactsReady is set once artifact metadata has been resolved for
	// the meeting, whether or not any recording was found.
	ArtifactsReady bool `json:"artifacts_ready"`
	// RecordingStartUTC is the creation time of the earliest recording, or
	// nil when no recording has been resolved.
	RecordingStartUTC *time.Time `json:"recording_start_utc,omitempty"`
	// RecordingBaseURL is the stable Graph reference path for the meeting's
	// artifacts, e.g. "/users/{organizer}/onlineMeetings/{meeting}".
	RecordingBaseURL *string   `json:"recording_base_url,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MeetingArtifactBasePath builds the stable reference path for a meeting's
// recording and transcript artifacts. The path is deterministic and does not
// depend on whether any artifact exists yet.
func MeetingArtifactBasePath(organizerID, meetingID string) string {
	return "/users/" + organizerID + "/onlineMeetings/" + meetingID
}
