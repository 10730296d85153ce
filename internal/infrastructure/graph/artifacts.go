// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain/models"
)

// Ensure that Client implements the domain contract.
var _ domain.GraphClient = (*Client)(nil)

// artifactListResponse is the collection envelope Graph wraps list results in.
type artifactListResponse struct {
	Value []models.MeetingArtifact `json:"value"`
}

// listArtifacts fetches a collection endpoint and unwraps the value array.
func (c *Client) listArtifacts(ctx context.Context, path string) ([]models.MeetingArtifact, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return nil, err
	}

	var list artifactListResponse
	if err := decodeInto(resp, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// ListRecordings returns the recordings of one online meeting in the order
// the API reports them.
func (c *Client) ListRecordings(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/%s/recordings", organizerID, meetingID)
	return c.listArtifacts(ctx, path)
}

// ListTranscripts returns the transcripts of one online meeting.
func (c *Client) ListTranscripts(ctx context.Context, organizerID, meetingID string) ([]models.MeetingArtifact, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/%s/transcripts", organizerID, meetingID)
	return c.listArtifacts(ctx, path)
}

// GetAllRecordings returns the recordings across all of an organizer's
// meetings, used for aggregate discovery.
func (c *Client) GetAllRecordings(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/getAllRecordings", organizerID)
	return c.listArtifacts(ctx, path)
}

// GetAllTranscripts returns the transcripts across all of an organizer's
// meetings.
func (c *Client) GetAllTranscripts(ctx context.Context, organizerID string) ([]models.MeetingArtifact, error) {
	path := fmt.Sprintf("/users/%s/onlineMeetings/getAllTranscripts", organizerID)
	return c.listArtifacts(ctx, path)
}

// ResolveMeetingByJoinURL resolves an online meeting ID from its join URL
// using a JoinWebUrl filter query. Resolved IDs are cached because a join
// URL never changes its meeting.
func (c *Client) ResolveMeetingByJoinURL(ctx context.Context, joinURL, organizerID string) (string, error) {
	cacheKey := organizerID + "|" + joinURL
	if cached, ok := c.joinURLCache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	filter := fmt.Sprintf("JoinWebUrl eq '%s'", joinURL)
	path := fmt.Sprintf("/users/%s/onlineMeetings?$filter=%s", organizerID, url.QueryEscape(filter))

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	if err := checkResponse(ctx, resp); err != nil {
		return "", err
	}

	var list struct {
		Value []struct {
			ID string `json:"id"`
		} `json:"value"`
	}
	if err := decodeInto(resp, &list); err != nil {
		return "", err
	}
	if len(list.Value) == 0 {
		return "", domain.NewNotFoundError("no online meeting matches the join URL")
	}

	meetingID := list.Value[0].ID
	c.joinURLCache.SetDefault(cacheKey, meetingID)
	return meetingID, nil
}
