// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Subscription mirrors the fields of a Graph change-notification
// subscription that this service manages. The subscription itself lives
// inside the platform; only the ID is a stable reference.
type Subscription struct {
	ID                 string    `json:"id"`
	Resource           string    `json:"resource"`
	ChangeType         string    `json:"changeType,omitempty"`
	NotificationURL    string    `json:"notificationUrl"`
	ExpirationDateTime time.Time `json:"expirationDateTime"`
	ClientState        string    `json:"clientState,omitempty"`
}

// ExpiresWithin reports whether the subscription's expiration is less than
// margin away from now (or already past).
func (s Subscription) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return s.ExpirationDateTime.Before(now.Add(margin))
}

// MeetingArtifact is the metadata of one recording or transcript returned by
// the Graph artifact listing endpoints.
type MeetingArtifact struct {
	ID                 string    `json:"id"`
	MeetingID          string    `json:"meetingId,omitempty"`
	MeetingOrganizerID string    `json:"meetingOrganizerId,omitempty"`
	CreatedDateTime    time.Time `json:"createdDateTime"`
	ContentURL         string    `json:"recordingContentUrl,omitempty"`
}
