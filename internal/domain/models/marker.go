// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Marker is a user-placed bookmark inside a meeting recording. The offset
// into the recording is derived after the fact, once the meeting's
// recording start time becomes known.
type Marker struct {
	ID           string    `json:"id"`
	MeetingID    string    `json:"meeting_id"`
	Label        string    `json:"label"`
	UTCTimestamp time.Time `json:"utc_timestamp"`
	UserID       string    `json:"user_id"`
	// OffsetSeconds is seconds since the meeting's recording start, clamped
	// at zero. Nil until the reconciliation job has run for this marker.
	OffsetSeconds *int `json:"offset_seconds,omitempty"`
}
