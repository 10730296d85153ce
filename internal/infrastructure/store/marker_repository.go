// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

const (
	insertMarkerSQL = `
		INSERT INTO markers (id, meeting_id, label, utc_timestamp, user_id)
		VALUES ($1, $2, $3, $4, $5)`

	listMarkersByMeetingSQL = `
		SELECT id, meeting_id, label, utc_timestamp, user_id, offset_seconds
		FROM markers
		WHERE meeting_id = $1
		ORDER BY utc_timestamp`

	// Offsets are derived once the meeting's recording start becomes
	// known; markers placed before the recording started clamp to zero.
	reconcileOffsetsSQL = `
		UPDATE markers m
		SET offset_seconds = GREATEST(
		    0,
		    EXTRACT(EPOCH FROM (m.utc_timestamp - mt.recording_start_utc))
		)::int
		FROM meetings mt
		WHERE m.meeting_id = mt.id
		    AND mt.recording_start_utc IS NOT NULL
		    AND m.offset_seconds IS NULL`

	countMeetingsSQL = `SELECT count(*) FROM meetings`
	countMarkersSQL  = `SELECT count(*) FROM markers`
)

// PostgresMarkerRepository implements domain.MarkerRepository and the store
// health probe.
type PostgresMarkerRepository struct {
	db *DB
}

// NewPostgresMarkerRepository creates a marker repository.
func NewPostgresMarkerRepository(db *DB) *PostgresMarkerRepository {
	return &PostgresMarkerRepository{db: db}
}

// IsReady checks if the repository is usable.
func (r *PostgresMarkerRepository) IsReady() bool {
	return r.db != nil
}

// Create inserts a marker row. The caller is responsible for ensuring the
// referenced meeting row exists first.
func (r *PostgresMarkerRepository) Create(ctx context.Context, marker *models.Marker) error {
	ctx, span := startSpan(ctx, "insert", "markers")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, insertMarkerSQL,
		marker.ID,
		marker.MeetingID,
		marker.Label,
		marker.UTCTimestamp,
		marker.UserID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error inserting marker", logging.ErrKey, err, "marker_id", marker.ID)
		return domain.NewInternalError("failed to insert marker", err)
	}
	return nil
}

// ListByMeeting returns all markers of one meeting ordered by timestamp.
func (r *PostgresMarkerRepository) ListByMeeting(ctx context.Context, meetingID string) ([]*models.Marker, error) {
	ctx, span := startSpan(ctx, "select", "markers")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, listMarkersByMeetingSQL, meetingID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error listing markers", logging.ErrKey, err, "meeting_id", meetingID)
		return nil, domain.NewInternalError("failed to list markers", err)
	}
	defer rows.Close()

	var markers []*models.Marker
	for rows.Next() {
		var marker models.Marker
		err := rows.Scan(
			&marker.ID,
			&marker.MeetingID,
			&marker.Label,
			&marker.UTCTimestamp,
			&marker.UserID,
			&marker.OffsetSeconds,
		)
		if err != nil {
			return nil, domain.NewInternalError("failed to scan marker row", err)
		}
		markers = append(markers, &marker)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewInternalError("failed to read marker rows", err)
	}

	return markers, nil
}

// ReconcileOffsets computes offset_seconds for markers whose meeting has a
// known recording start and whose offset is still unset. Returns the number
// of markers updated.
func (r *PostgresMarkerRepository) ReconcileOffsets(ctx context.Context) (int64, error) {
	ctx, span := startSpan(ctx, "update", "markers")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return 0, err
	}

	tag, err := pool.Exec(ctx, reconcileOffsetsSQL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error reconciling marker offsets", logging.ErrKey, err)
		return 0, domain.NewInternalError("failed to reconcile marker offsets", err)
	}

	return tag.RowsAffected(), nil
}

// Check probes store connectivity by counting meetings and markers.
func (r *PostgresMarkerRepository) Check(ctx context.Context) (*domain.StoreStats, error) {
	ctx, span := startSpan(ctx, "select", "meetings")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	var stats domain.StoreStats
	if err := pool.QueryRow(ctx, countMeetingsSQL).Scan(&stats.Meetings); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewUnavailableError("failed to count meetings", err)
	}
	if err := pool.QueryRow(ctx, countMarkersSQL).Scan(&stats.Markers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewUnavailableError("failed to count markers", err)
	}

	return &stats, nil
}
