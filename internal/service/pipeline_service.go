// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// LifecycleHandler reacts to subscription lifecycle notifications. Implemented
// by SubscriptionService.
type LifecycleHandler interface {
	HandleLifecycleEvent(ctx context.Context, envelope models.NotificationEnvelope) error
}

// NotificationPipeline consumes queued change notifications and converges the
// store to the artifacts they announce. Processing is idempotent so the
// transport can redeliver any message whose processing failed mid-way.
type NotificationPipeline struct {
	meetingRepo domain.MeetingRepository
	resolver    *ArtifactResolver
	graph       domain.GraphClient
	lifecycle   LifecycleHandler
	// clientState is the secret expected on every envelope. Envelopes
	// carrying anything else are ignored without any downstream call.
	clientState string
}

// NewNotificationPipeline creates the pipeline.
func NewNotificationPipeline(
	meetingRepo domain.MeetingRepository,
	resolver *ArtifactResolver,
	graph domain.GraphClient,
	lifecycle LifecycleHandler,
	clientState string,
) *NotificationPipeline {
	return &NotificationPipeline{
		meetingRepo: meetingRepo,
		resolver:    resolver,
		graph:       graph,
		lifecycle:   lifecycle,
		clientState: clientState,
	}
}

// ServiceReady checks if the pipeline has all its collaborators.
func (p *NotificationPipeline) ServiceReady() bool {
	return p.meetingRepo != nil && p.resolver != nil && p.graph != nil && p.lifecycle != nil
}

// meetingWork identifies one meeting whose artifacts need resolving.
type meetingWork struct {
	organizerID string
	meetingID   string
}

// decodeEnvelopes accepts either a single envelope object or an array of
// them; both shapes occur on the wire.
func decodeEnvelopes(data []byte) ([]models.NotificationEnvelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var envelopes []models.NotificationEnvelope
		if err := json.Unmarshal(trimmed, &envelopes); err != nil {
			return nil, err
		}
		return envelopes, nil
	}

	var envelope models.NotificationEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	return []models.NotificationEnvelope{envelope}, nil
}

// ProcessMessage handles one queue message. A nil return means the message is
// done (processed or permanently unprocessable) and must be acknowledged; a
// non-nil return means a transient failure and the message must be
// redelivered.
func (p *NotificationPipeline) ProcessMessage(ctx context.Context, data []byte) error {
	envelopes, err := decodeEnvelopes(data)
	if err != nil {
		// Malformed payloads never become processable; drop them.
		slog.WarnContext(ctx, "dropping malformed notification payload", logging.ErrKey, err)
		return nil
	}

	items, organizers := p.triage(ctx, envelopes)

	// Item-level work commits as one batch: a replay after a partial failure
	// redoes the whole message and converges to the same rows.
	if err := p.processItems(ctx, items); err != nil {
		return err
	}

	// Aggregate discovery runs per organizer with its own transaction so one
	// organizer's failure does not roll back or block another's work. The
	// failed organizer is retried by the next notification for it.
	for _, organizerID := range organizers {
		if err := p.processOrganizer(ctx, organizerID); err != nil {
			slog.ErrorContext(ctx, "organizer discovery failed",
				logging.ErrKey, err,
				"organizer_id", organizerID,
			)
		}
	}

	return nil
}

// triage validates and classifies the envelopes of one message, dispatching
// lifecycle events inline and deduplicating the change work.
func (p *NotificationPipeline) triage(ctx context.Context, envelopes []models.NotificationEnvelope) ([]meetingWork, []string) {
	var items []meetingWork
	var organizers []string
	seenMeetings := make(map[meetingWork]bool)
	seenOrganizers := make(map[string]bool)

	for _, envelope := range envelopes {
		if p.clientState != "" && envelope.Data.ClientState != p.clientState {
			slog.WarnContext(ctx, "ignoring envelope with unexpected client state",
				"event_type", envelope.Tag(),
			)
			continue
		}

		if envelope.IsLifecycle() {
			if err := p.lifecycle.HandleLifecycleEvent(ctx, envelope); err != nil {
				// Lifecycle handling is best-effort inside a mixed batch; the
				// renewal sweep backstops anything missed here.
				slog.ErrorContext(ctx, "lifecycle event handling failed",
					logging.ErrKey, err,
					"lifecycle_event", envelope.Data.LifecycleEvent,
				)
			}
			continue
		}

		descriptor := models.ClassifyResource(envelope.ResourceLocator())
		switch descriptor.Scope {
		case models.ResourceScopeItem:
			work := meetingWork{organizerID: descriptor.OrganizerID, meetingID: descriptor.MeetingID}
			if !seenMeetings[work] {
				seenMeetings[work] = true
				items = append(items, work)
			}
		case models.ResourceScopeAggregate:
			// Aggregate discovery inspects both artifact listings, so one
			// organizer pass covers every aggregate envelope for them no
			// matter which subscription fired.
			if !seenOrganizers[descriptor.OrganizerID] {
				seenOrganizers[descriptor.OrganizerID] = true
				organizers = append(organizers, descriptor.OrganizerID)
			}
		default:
			slog.DebugContext(ctx, "ignoring unrecognized resource locator",
				"resource", envelope.ResourceLocator(),
			)
		}
	}

	return items, organizers
}

// processItems resolves and upserts each directly-named meeting inside one
// transaction. Any failure aborts the batch so the message is redelivered
// whole.
func (p *NotificationPipeline) processItems(ctx context.Context, items []meetingWork) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := p.meetingRepo.BeginWrite(ctx)
	if err != nil {
		return err
	}

	for _, work := range items {
		start, baseRef, err := p.resolver.Resolve(ctx, work.organizerID, work.meetingID)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Upsert(ctx, work.meetingID, start, baseRef); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "processed item notifications", "meeting_count", len(items))
	return nil
}

// processOrganizer discovers the meetings affected by one aggregate
// notification and upserts them in one transaction scoped to that organizer.
// Both listings are consulted because a meeting can hold only transcripts or
// only recordings; the union of their meeting ids is the discovery set.
func (p *NotificationPipeline) processOrganizer(ctx context.Context, organizerID string) error {
	recordings, err := p.graph.GetAllRecordings(ctx, organizerID)
	if err != nil {
		return err
	}
	transcripts, err := p.graph.GetAllTranscripts(ctx, organizerID)
	if err != nil {
		return err
	}

	// Distinct meetings, in discovery order.
	var meetings []string
	seen := make(map[string]bool)
	for _, artifact := range append(recordings, transcripts...) {
		if artifact.MeetingID == "" || seen[artifact.MeetingID] {
			continue
		}
		seen[artifact.MeetingID] = true
		meetings = append(meetings, artifact.MeetingID)
	}
	if len(meetings) == 0 {
		slog.DebugContext(ctx, "aggregate notification matched no meetings",
			"organizer_id", organizerID,
		)
		return nil
	}

	tx, err := p.meetingRepo.BeginWrite(ctx)
	if err != nil {
		return err
	}

	for _, meetingID := range meetings {
		start, baseRef, err := p.resolver.Resolve(ctx, organizerID, meetingID)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Upsert(ctx, meetingID, start, baseRef); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "processed aggregate notification",
		"organizer_id", organizerID,
		"meeting_count", len(meetings),
	)
	return nil
}
