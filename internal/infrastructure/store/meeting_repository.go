// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

const (
	insertMeetingIfAbsentSQL = `
		INSERT INTO meetings (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`

	markArtifactsReadySQL = `
		UPDATE meetings
		SET artifacts_ready = TRUE,
		    recording_start_utc = $2,
		    recording_base_url = $3,
		    updated_at = now()
		WHERE id = $1`

	getMeetingSQL = `
		SELECT id, artifacts_ready, recording_start_utc, recording_base_url, updated_at
		FROM meetings
		WHERE id = $1`
)

// PostgresMeetingRepository implements domain.MeetingRepository on the
// shared lazy pool.
type PostgresMeetingRepository struct {
	db *DB
}

// NewPostgresMeetingRepository creates a meeting repository.
func NewPostgresMeetingRepository(db *DB) *PostgresMeetingRepository {
	return &PostgresMeetingRepository{db: db}
}

// IsReady checks if the repository is usable.
func (r *PostgresMeetingRepository) IsReady() bool {
	return r.db != nil
}

// startSpan opens a client-kind span for one store operation.
func startSpan(ctx context.Context, operation, table string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pg."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		),
	)
}

// BeginWrite opens a transaction for a batch of artifact upserts. All
// upserts in the batch commit together so a replayed message converges to
// the same rows.
func (r *PostgresMeetingRepository) BeginWrite(ctx context.Context) (domain.MeetingWriteTx, error) {
	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error beginning meeting write transaction", logging.ErrKey, err)
		return nil, domain.NewInternalError("failed to begin transaction", err)
	}
	return &meetingWriteTx{tx: tx}, nil
}

// meetingWriteTx batches meeting upserts inside one pgx transaction.
type meetingWriteTx struct {
	tx pgx.Tx
}

// Upsert inserts the meeting row if absent and then unconditionally marks
// the artifacts ready with the resolved metadata. A nil start time
// deliberately overwrites a previously resolved one; last write wins.
func (t *meetingWriteTx) Upsert(ctx context.Context, meetingID string, recordingStart *time.Time, baseRef string) error {
	ctx, span := startSpan(ctx, "upsert", "meetings")
	defer span.End()

	if _, err := t.tx.Exec(ctx, insertMeetingIfAbsentSQL, meetingID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error inserting meeting row", logging.ErrKey, err, "meeting_id", meetingID)
		return domain.NewInternalError("failed to insert meeting row", err)
	}

	if _, err := t.tx.Exec(ctx, markArtifactsReadySQL, meetingID, recordingStart, baseRef); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error marking meeting artifacts ready", logging.ErrKey, err, "meeting_id", meetingID)
		return domain.NewInternalError("failed to update meeting row", err)
	}

	return nil
}

func (t *meetingWriteTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		slog.ErrorContext(ctx, "error committing meeting write transaction", logging.ErrKey, err)
		return domain.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

func (t *meetingWriteTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// Get returns one meeting row.
func (r *PostgresMeetingRepository) Get(ctx context.Context, meetingID string) (*models.Meeting, error) {
	ctx, span := startSpan(ctx, "get", "meetings")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return nil, err
	}

	var meeting models.Meeting
	err = pool.QueryRow(ctx, getMeetingSQL, meetingID).Scan(
		&meeting.ID,
		&meeting.ArtifactsReady,
		&meeting.RecordingStartUTC,
		&meeting.RecordingBaseURL,
		&meeting.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("meeting not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error getting meeting", logging.ErrKey, err, "meeting_id", meetingID)
		return nil, domain.NewInternalError("failed to get meeting", err)
	}

	return &meeting, nil
}

// Ensure inserts a meeting row if absent, outside any batch.
func (r *PostgresMeetingRepository) Ensure(ctx context.Context, meetingID string) error {
	ctx, span := startSpan(ctx, "ensure", "meetings")
	defer span.End()

	pool, err := r.db.Pool(ctx)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, insertMeetingIfAbsentSQL, meetingID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "error ensuring meeting row", logging.ErrKey, err, "meeting_id", meetingID)
		return domain.NewInternalError("failed to ensure meeting row", err)
	}
	return nil
}
