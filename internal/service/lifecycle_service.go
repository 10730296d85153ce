// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// HandleLifecycleEvent reacts to one subscription lifecycle notification.
//
// reauthorizationRequired targets the named subscription; subscriptionRemoved
// recreates whatever managed subscription is missing; missed means
// notifications may have been dropped, so the expiring subscriptions are
// swept immediately rather than waiting for the next scheduled sweep. Unknown
// events are logged and ignored so new platform event names do not poison the
// queue.
func (s *SubscriptionService) HandleLifecycleEvent(ctx context.Context, envelope models.NotificationEnvelope) error {
	event := envelope.Data.LifecycleEvent
	subscriptionID := envelope.Data.SubscriptionID

	slog.InfoContext(ctx, "handling subscription lifecycle event",
		"lifecycle_event", event,
		"subscription_id", subscriptionID,
	)

	switch event {
	case models.LifecycleReauthorizationRequired:
		if subscriptionID == "" {
			return domain.NewValidationError("reauthorizationRequired event without subscription ID")
		}
		return s.Reauthorize(ctx, subscriptionID)

	case models.LifecycleSubscriptionRemoved:
		return s.EnsureSubscriptions(ctx)

	case models.LifecycleMissed:
		_, err := s.RenewExpiring(ctx)
		return err

	default:
		slog.WarnContext(ctx, "ignoring unknown lifecycle event", "lifecycle_event", event)
		return nil
	}
}
