// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package graph is a Microsoft Graph API client covering the online meeting
// artifact and subscription operations consumed by the Teams artifact
// service.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

const (
	// BaseURL is the base URL for the Graph v1.0 API.
	BaseURL = "https://graph.microsoft.com/v1.0"
	// AuthorityURLFormat is the OAuth token endpoint for a tenant.
	AuthorityURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	// DefaultScope is the application-permission scope for client
	// credential flows.
	DefaultScope = "https://graph.microsoft.com/.default"

	// DefaultClientTimeout bounds every Graph API request.
	DefaultClientTimeout = 30 * time.Second

	// Default retry configuration
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0

	// Join-URL lookups are immutable for the lifetime of a meeting, so
	// resolved IDs are cached briefly to spare the filter query.
	joinURLCacheTTL     = time.Hour
	joinURLCacheCleanup = 2 * time.Hour
)

// Config holds the configuration for the Graph client.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// Optional: override base URL for testing
	BaseURL string
	// Optional: override token URL for testing
	AuthURL string
	// Optional: override timeout for HTTP requests
	Timeout time.Duration
	// Optional: retry configuration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// Client is a Graph API client. The bearer token is a process-wide cached
// credential: the oauth2 token source refreshes it lazily when absent or
// expired, and concurrent refreshes are harmless beyond the redundant token
// request.
type Client struct {
	httpClient   *http.Client
	config       Config
	oauthConfig  *clientcredentials.Config
	tokenSource  oauth2.TokenSource
	joinURLCache *gocache.Cache
}

// NewClient creates a new Graph API client.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.AuthURL == "" {
		config.AuthURL = fmt.Sprintf(AuthorityURLFormat, config.TenantID)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = DefaultInitialBackoff
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = DefaultBackoffMultiplier
	}

	oauthConfig := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     config.AuthURL,
		Scopes:       []string{DefaultScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config:       config,
		oauthConfig:  oauthConfig,
		tokenSource:  oauthConfig.TokenSource(context.Background()),
		joinURLCache: gocache.New(joinURLCacheTTL, joinURLCacheCleanup),
	}
}

// authenticatedClient returns an HTTP client whose transport injects the
// cached bearer token, refreshing it when needed.
func (c *Client) authenticatedClient() *http.Client {
	return &http.Client{
		Timeout: c.config.Timeout,
		Transport: &oauth2.Transport{
			Base:   http.DefaultTransport,
			Source: c.tokenSource,
		},
	}
}

// shouldRetry determines if an error or HTTP status code should be retried
func shouldRetry(statusCode int, err error) bool {
	if err != nil {
		if ctxErr, ok := err.(interface{ Err() error }); ok {
			if ctxErr.Err() == context.Canceled || ctxErr.Err() == context.DeadlineExceeded {
				return false
			}
		}
		// Network and connection errors are worth retrying.
		return true
	}

	if statusCode >= http.StatusInternalServerError {
		return true
	}
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	// 4xx means the request itself is wrong; retrying cannot help.
	return false
}

// backoffFor calculates the backoff duration for a retry attempt with jitter
// so concurrent workers do not retry in lockstep.
func (c *Client) backoffFor(attempt int) time.Duration {
	if attempt <= 0 {
		return c.config.InitialBackoff
	}

	backoff := float64(c.config.InitialBackoff) * math.Pow(c.config.BackoffMultiplier, float64(attempt))
	if time.Duration(backoff) > c.config.MaxBackoff {
		backoff = float64(c.config.MaxBackoff)
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	withJitter := time.Duration(backoff + jitter)
	if withJitter < c.config.InitialBackoff {
		withJitter = c.config.InitialBackoff
	}

	return withJitter
}

// doRequest performs an authenticated Graph API request with retry on
// transient failures. The returned response may still carry an error status;
// callers classify it with checkResponse.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	url := c.config.BaseURL + path
	client := c.authenticatedClient()

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		slog.DebugContext(ctx, "making Graph API request",
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.config.MaxRetries,
		)

		start := time.Now()
		resp, err := client.Do(req)
		duration := time.Since(start)

		if err == nil && resp != nil && !shouldRetry(resp.StatusCode, nil) {
			slog.DebugContext(ctx, "Graph API request completed",
				"method", method,
				"path", path,
				"status", resp.StatusCode,
				"duration", duration.String(),
				"attempt", attempt+1,
			)
			return resp, nil
		}

		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		lastErr, lastResp = err, resp

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		if !shouldRetry(statusCode, err) {
			break
		}

		if attempt < c.config.MaxRetries {
			backoff := c.backoffFor(attempt)
			slog.WarnContext(ctx, "Graph API request failed, retrying",
				"method", method,
				"path", path,
				"status", statusCode,
				"duration", duration.String(),
				"attempt", attempt+1,
				"backoff", backoff.String(),
				logging.ErrKey, err)

			select {
			case <-ctx.Done():
				if lastResp != nil {
					_ = lastResp.Body.Close()
				}
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		} else {
			slog.ErrorContext(ctx, "Graph API request failed after all retries",
				"method", method,
				"path", path,
				"status", statusCode,
				"attempts", attempt+1,
				logging.ErrKey, err,
				logging.PriorityCritical())
		}
	}

	if lastErr != nil {
		if lastResp != nil {
			_ = lastResp.Body.Close()
		}
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
	}
	return lastResp, nil
}

// APIError is a Graph error response together with the HTTP status it
// arrived with.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph API error (status %d): %s", e.StatusCode, e.Message)
}

// checkResponse classifies a non-success response into an APIError, reading
// and closing the body. Success responses are left open for the caller.
func checkResponse(ctx context.Context, resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	var errResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Code = errResp.Error.Code
		apiErr.Message = errResp.Error.Message
	}

	slog.ErrorContext(ctx, "Graph API error response",
		"status", resp.StatusCode,
		"code", apiErr.Code,
		"message", apiErr.Message,
		logging.ErrKey, apiErr)

	return apiErr
}

// decodeInto decodes a success response body into v and closes it.
func decodeInto(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode Graph response: %w", err)
	}
	return nil
}
