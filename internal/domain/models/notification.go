// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// Event type tags used by Event Grid envelopes carrying Graph notifications.
const (
	EventTypeChangeNotification    = "Microsoft.Graph.ChangeNotification"
	EventTypeLifecycleNotification = "Microsoft.Graph.LifecycleNotification"
)

// Lifecycle event names delivered inside lifecycle notifications.
const (
	LifecycleReauthorizationRequired = "reauthorizationRequired"
	LifecycleSubscriptionRemoved     = "subscriptionRemoved"
	LifecycleMissed                  = "missed"
)

// NotificationEnvelope is one unit of change-event data delivered by the
// queue. Envelopes arrive with partially-overlapping shapes depending on the
// delivery channel, so both the "type" and "eventType" tags are accepted,
// and the top-level subject doubles as a fallback resource locator.
type NotificationEnvelope struct {
	Type      string           `json:"type,omitempty"`
	EventType string           `json:"eventType,omitempty"`
	Subject   string           `json:"subject,omitempty"`
	Data      NotificationData `json:"data"`
}

// NotificationData is the sub-payload of a notification envelope.
type NotificationData struct {
	Resource       string `json:"resource,omitempty"`
	LifecycleEvent string `json:"lifecycleEvent,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	ClientState    string `json:"clientState,omitempty"`
}

// Tag returns the envelope's event type tag, preferring "type" over
// "eventType" when both are present.
func (e NotificationEnvelope) Tag() string {
	if e.Type != "" {
		return e.Type
	}
	return e.EventType
}

// IsLifecycle reports whether the envelope carries a subscription lifecycle
// signal rather than a resource change.
func (e NotificationEnvelope) IsLifecycle() bool {
	return e.Tag() == EventTypeLifecycleNotification || e.Data.LifecycleEvent != ""
}

// ResourceLocator returns the opaque locator of the changed resource,
// falling back to the envelope subject when the data payload omits it.
func (e NotificationEnvelope) ResourceLocator() string {
	if e.Data.Resource != "" {
		return e.Data.Resource
	}
	return e.Subject
}
