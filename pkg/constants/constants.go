// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants holds shared constants for the Teams artifact service.
package constants

// Queue transport constants.
const (
	// NotificationStreamName is the JetStream work-queue stream holding
	// inbound Graph change notifications.
	NotificationStreamName = "TEAMS_NOTIFICATIONS"

	// NotificationSubject is the subject the webhook receiver publishes to
	// and the pipeline consumer reads from.
	NotificationSubject = "teams.notifications"

	// NotificationConsumerDurable is the durable name of the pipeline consumer.
	NotificationConsumerDurable = "artifact-pipeline"

	// NotificationMaxDeliver bounds redeliveries before a message is dead-lettered.
	NotificationMaxDeliver = 5
)

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// contextPrincipal is the type for the principal context key
type contextPrincipal string

// PrincipalContextID is the context ID for the authenticated principal
const PrincipalContextID contextPrincipal = "principal"
