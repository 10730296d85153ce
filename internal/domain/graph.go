// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package domain contains the collaborator contracts and domain errors for
// the Teams artifact service.
package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// SubscriptionRequest carries the inputs for creating a Graph
// change-notification subscription.
type SubscriptionRequest struct {
	Resource           string
	ChangeType         string
	NotificationURL    string
	LifecycleURL       string
	ClientState        string
	ExpirationDateTime time.Time
}

// GraphClient is the contract for the Microsoft Graph operations this
// service consumes. Every call returns an error for any non-success HTTP
// status; callers decide whether a failure is fatal to the batch or
// recoverable per item.
type GraphClient interface {
	// ListRecordings returns the recordings of one online meeting in API
	// response order.
	ListRecordings(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error)
	// ListTranscripts returns the transcripts of one online meeting.
	ListTranscripts(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error)
	// GetAllRecordings returns the recordings across every meeting of an
	// organizer, used for aggregate discovery.
	GetAllRecordings(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error)
	// GetAllTranscripts returns the transcripts across every meeting of an
	// organizer.
	GetAllTranscripts(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error)
	// ResolveMeetingByJoinURL resolves an online meeting ID from its join
	// URL. Returns a not-found error when no meeting matches.
	ResolveMeetingByJoinURL(ctx context.Context, joinURL, organizerID string) (string, error)

	// CreateSubscription registers a new change-notification subscription.
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*models.Subscription, error)
	// ListSubscriptions enumerates the subscriptions visible to this
	// application.
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	// RenewSubscription extends one subscription to a new expiration.
	RenewSubscription(ctx context.Context, subscriptionID string, expiration time.Time) (*models.Subscription, error)
	// DeleteSubscription removes a subscription.
	DeleteSubscription(ctx context.Context, subscriptionID string) error
	// ReauthorizeSubscription re-runs the platform's authorization checks
	// for a subscription.
	ReauthorizeSubscription(ctx context.Context, subscriptionID string) error
}
