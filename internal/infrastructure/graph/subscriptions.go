// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package graph

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// createSubscriptionRequest is the wire shape of a subscription create call.
type createSubscriptionRequest struct {
	ChangeType               string `json:"changeType"`
	NotificationURL          string `json:"notificationUrl"`
	LifecycleNotificationURL string `json:"lifecycleNotificationUrl,omitempty"`
	Resource                 string `json:"resource"`
	ExpirationDateTime       string `json:"expirationDateTime"`
	ClientState              string `json:"clientState,omitempty"`
}

// CreateSubscription registers a new change-notification subscription.
func (c *Client) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*models.Subscription, error) {
	body := createSubscriptionRequest{
		ChangeType:               req.ChangeType,
		NotificationURL:          req.NotificationURL,
		LifecycleNotificationURL: req.LifecycleURL,
		Resource:                 req.Resource,
		ExpirationDateTime:       req.ExpirationDateTime.UTC().Format(time.RFC3339),
		ClientState:              req.ClientState,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/subscriptions", body)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return nil, err
	}

	var sub models.Subscription
	if err := decodeInto(resp, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptions enumerates the subscriptions visible to this
// application registration.
func (c *Client) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/subscriptions", nil)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return nil, err
	}

	var list struct {
		Value []models.Subscription `json:"value"`
	}
	if err := decodeInto(resp, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// RenewSubscription extends one subscription to a new expiration.
func (c *Client) RenewSubscription(ctx context.Context, subscriptionID string, expiration time.Time) (*models.Subscription, error) {
	body := map[string]string{
		"expirationDateTime": expiration.UTC().Format(time.RFC3339),
	}

	resp, err := c.doRequest(ctx, http.MethodPatch, "/subscriptions/"+subscriptionID, body)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return nil, err
	}

	var sub models.Subscription
	if err := decodeInto(resp, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubscription removes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil)
	if err != nil {
		return err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// ReauthorizeSubscription re-runs the platform's authorization checks for a
// subscription that signalled reauthorizationRequired.
func (c *Client) ReauthorizeSubscription(ctx context.Context, subscriptionID string) error {
	path := fmt.Sprintf("/subscriptions/%s/reauthorize", subscriptionID)
	resp, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
