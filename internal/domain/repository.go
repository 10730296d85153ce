// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// MeetingWriteTx batches meeting upserts so that all writes implied by one
// queue message (or one organizer within a message) commit atomically.
// Upserts are idempotent: replaying the same batch converges to the same row
// state.
type MeetingWriteTx interface {
	// Upsert ensures the meeting row exists (insert-if-absent, never
	// touching an existing row's fields) and then unconditionally marks the
	// artifacts as ready with the resolved metadata. A nil start time
	// overwrites any previously resolved timestamp; last write wins.
	Upsert(ctx context.Context, meetingID string, recordingStart *time.Time, baseRef string) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// MeetingRepository is the store contract for meeting rows.
type MeetingRepository interface {
	// BeginWrite opens a transaction for a batch of artifact upserts.
	BeginWrite(ctx context.Context) (MeetingWriteTx, error)
	// Get returns one meeting row.
	Get(ctx context.Context, meetingID string) (*models.Meeting, error)
	// Ensure inserts a meeting row if absent, outside any batch. Used when
	// a marker references a meeting the pipeline has not seen yet.
	Ensure(ctx context.Context, meetingID string) error
}

// MarkerRepository is the store contract for recording markers.
type MarkerRepository interface {
	Create(ctx context.Context, marker *models.Marker) error
	ListByMeeting(ctx context.Context, meetingID string) ([]*models.Marker, error)
	// ReconcileOffsets computes offset_seconds for markers whose meeting
	// has a known recording start and whose offset is still unset. Returns
	// the number of markers updated.
	ReconcileOffsets(ctx context.Context) (int64, error)
}

// StoreStats is the result of a store connectivity probe.
type StoreStats struct {
	Meetings int64 `json:"meetings"`
	Markers  int64 `json:"markers"`
}

// StoreHealthChecker probes store connectivity for the health endpoint.
type StoreHealthChecker interface {
	Check(ctx context.Context) (*StoreStats, error)
}
