// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/pkg/concurrent"
)

const (
	// subscriptionHorizon is how far ahead new and renewed subscriptions
	// expire. The platform caps online meeting artifact subscriptions just
	// above this value.
	subscriptionHorizon = 23 * time.Hour

	// renewalMargin is how close to expiration a subscription must be before
	// the sweep renews it.
	renewalMargin = time.Hour

	// subscriptionChangeType covers artifact creation and updates.
	subscriptionChangeType = "created,updated"

	// renewWorkers bounds concurrent renewal calls during a sweep.
	renewWorkers = 4
)

// SubscriptionConfig identifies the subscriptions this service owns.
type SubscriptionConfig struct {
	// OrganizerID is the user whose meetings are watched.
	OrganizerID string
	// NotificationURL receives change notifications; it also discriminates
	// this service's subscriptions from any others on the same tenant.
	NotificationURL string
	// LifecycleURL receives subscription lifecycle notifications.
	LifecycleURL string
	// ClientState is the shared secret echoed back in every notification.
	ClientState string
}

// SubscriptionService keeps the Graph change-notification subscriptions this
// service depends on alive.
type SubscriptionService struct {
	graph  domain.GraphClient
	config SubscriptionConfig
	pool   *concurrent.WorkerPool
	now    func() time.Time
}

// NewSubscriptionService creates a subscription service.
func NewSubscriptionService(graph domain.GraphClient, config SubscriptionConfig) *SubscriptionService {
	return &SubscriptionService{
		graph:  graph,
		config: config,
		pool:   concurrent.NewWorkerPool(renewWorkers),
		now:    time.Now,
	}
}

// ServiceReady checks if the service is ready to manage subscriptions.
func (s *SubscriptionService) ServiceReady() bool {
	return s.graph != nil
}

// managedResources returns the aggregate resources this service subscribes
// to: one per artifact kind, scoped to the configured organizer.
func (s *SubscriptionService) managedResources() []string {
	return []string{
		fmt.Sprintf("users('%s')/onlineMeetings/getAllRecordings", s.config.OrganizerID),
		fmt.Sprintf("users('%s')/onlineMeetings/getAllTranscripts", s.config.OrganizerID),
	}
}

// owns reports whether a subscription belongs to this service. Ownership is
// keyed on the notification URL because the platform does not echo the client
// state back on the listing endpoint.
func (s *SubscriptionService) owns(sub models.Subscription) bool {
	return sub.NotificationURL == s.config.NotificationURL
}

// EnsureSubscriptions creates any managed subscription that does not already
// exist. Called at startup and when a subscriptionRemoved lifecycle event
// arrives. Creation failures are collected so one missing subscription does
// not block the other.
func (s *SubscriptionService) EnsureSubscriptions(ctx context.Context) error {
	existing, err := s.graph.ListSubscriptions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing subscriptions", logging.ErrKey, err)
		return err
	}

	owned := make(map[string]bool)
	for _, sub := range existing {
		if s.owns(sub) {
			owned[sub.Resource] = true
		}
	}

	var errs []error
	for _, resource := range s.managedResources() {
		if owned[resource] {
			continue
		}
		sub, err := s.graph.CreateSubscription(ctx, domain.SubscriptionRequest{
			Resource:           resource,
			ChangeType:         subscriptionChangeType,
			NotificationURL:    s.config.NotificationURL,
			LifecycleURL:       s.config.LifecycleURL,
			ClientState:        s.config.ClientState,
			ExpirationDateTime: s.now().Add(subscriptionHorizon),
		})
		if err != nil {
			slog.ErrorContext(ctx, "error creating subscription",
				logging.ErrKey, err,
				"resource", resource,
			)
			errs = append(errs, err)
			continue
		}
		slog.InfoContext(ctx, "created subscription",
			"subscription_id", sub.ID,
			"resource", resource,
			"expires_at", sub.ExpirationDateTime,
		)
	}
	return errors.Join(errs...)
}

// Renew extends one subscription to a fresh horizon.
func (s *SubscriptionService) Renew(ctx context.Context, subscriptionID string) error {
	sub, err := s.graph.RenewSubscription(ctx, subscriptionID, s.now().Add(subscriptionHorizon))
	if err != nil {
		slog.ErrorContext(ctx, "error renewing subscription",
			logging.ErrKey, err,
			"subscription_id", subscriptionID,
		)
		return err
	}
	slog.InfoContext(ctx, "renewed subscription",
		"subscription_id", sub.ID,
		"expires_at", sub.ExpirationDateTime,
	)
	return nil
}

// Reauthorize re-runs the platform authorization checks for one subscription
// and then renews it, as required after a reauthorizationRequired lifecycle
// event.
func (s *SubscriptionService) Reauthorize(ctx context.Context, subscriptionID string) error {
	if err := s.graph.ReauthorizeSubscription(ctx, subscriptionID); err != nil {
		slog.ErrorContext(ctx, "error reauthorizing subscription",
			logging.ErrKey, err,
			"subscription_id", subscriptionID,
		)
		return err
	}
	return s.Renew(ctx, subscriptionID)
}

// RenewExpiring renews every owned subscription that expires within the
// renewal margin. Renewal failures are isolated per subscription; the sweep
// renews what it can and reports how many succeeded.
func (s *SubscriptionService) RenewExpiring(ctx context.Context) (int, error) {
	subs, err := s.graph.ListSubscriptions(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error listing subscriptions for renewal sweep", logging.ErrKey, err)
		return 0, err
	}

	now := s.now()
	var tasks []func() error
	for _, sub := range subs {
		if !s.owns(sub) || !sub.ExpiresWithin(now, renewalMargin) {
			continue
		}
		subscriptionID := sub.ID
		tasks = append(tasks, func() error {
			return s.Renew(ctx, subscriptionID)
		})
	}
	if len(tasks) == 0 {
		slog.DebugContext(ctx, "renewal sweep found no expiring subscriptions")
		return 0, nil
	}

	errs := s.pool.RunAll(ctx, tasks...)
	renewed := len(tasks) - len(errs)
	slog.InfoContext(ctx, "renewal sweep finished",
		"candidates", len(tasks),
		"renewed", renewed,
		"failed", len(errs),
	)
	return renewed, errors.Join(errs...)
}

// DeleteOwned removes every subscription owned by this service. Used on
// decommission so the platform stops delivering notifications.
func (s *SubscriptionService) DeleteOwned(ctx context.Context) error {
	subs, err := s.graph.ListSubscriptions(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, sub := range subs {
		if !s.owns(sub) {
			continue
		}
		if err := s.graph.DeleteSubscription(ctx, sub.ID); err != nil {
			slog.ErrorContext(ctx, "error deleting subscription",
				logging.ErrKey, err,
				"subscription_id", sub.ID,
			)
			errs = append(errs, err)
			continue
		}
		slog.InfoContext(ctx, "deleted subscription", "subscription_id", sub.ID)
	}
	return errors.Join(errs...)
}
