// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates bearer tokens on the marker API.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// JWTAuthConfig holds the token validation settings.
type JWTAuthConfig struct {
	// IssuerURL is the token issuer, e.g. the Entra tenant endpoint.
	IssuerURL string
	// JWKSURL overrides the derived JWKS endpoint when set.
	JWKSURL string
	// Audience is the expected audience claim.
	Audience []string
	// MockLocalPrincipal bypasses validation in local development and
	// resolves every request to the given principal. Never set in
	// production.
	MockLocalPrincipal string
}

// entraClaims carries the identity claims this service reads from validated
// tokens.
type entraClaims struct {
	ObjectID          string `json:"oid"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
}

func (c *entraClaims) Validate(_ context.Context) error {
	return nil
}

// JWTAuth validates bearer tokens and extracts the caller principal.
type JWTAuth struct {
	config    JWTAuthConfig
	validator *validator.Validator
}

// NewJWTAuth creates a token validator backed by a caching JWKS provider.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	if config.MockLocalPrincipal != "" {
		slog.Warn("JWT validation is mocked; all requests resolve to a fixed principal",
			"principal", config.MockLocalPrincipal,
		)
		return &JWTAuth{config: config}, nil
	}

	issuerURL, err := url.Parse(config.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer URL: %w", err)
	}

	var providerOpts []interface{}
	if config.JWKSURL != "" {
		jwksURL, err := url.Parse(config.JWKSURL)
		if err != nil {
			return nil, fmt.Errorf("invalid JWKS URL: %w", err)
		}
		providerOpts = append(providerOpts, jwks.WithCustomJWKSURI(jwksURL))
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute, providerOpts...)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		config.Audience,
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &entraClaims{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up JWT validator: %w", err)
	}

	return &JWTAuth{config: config, validator: jwtValidator}, nil
}

// ParsePrincipal validates the bearer token and returns the caller's
// principal identifier.
func (a *JWTAuth) ParsePrincipal(ctx context.Context, bearerToken string) (string, error) {
	if a.config.MockLocalPrincipal != "" {
		return a.config.MockLocalPrincipal, nil
	}

	if bearerToken == "" {
		return "", domain.NewUnauthorizedError("missing bearer token")
	}

	claims, err := a.validator.ValidateToken(ctx, bearerToken)
	if err != nil {
		slog.WarnContext(ctx, "token validation failed", logging.ErrKey, err)
		return "", domain.NewUnauthorizedError("invalid token", err)
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return "", domain.NewUnauthorizedError("unexpected claims type")
	}

	principal := validatedClaims.RegisteredClaims.Subject
	if custom, ok := validatedClaims.CustomClaims.(*entraClaims); ok {
		if custom.PreferredUsername != "" {
			principal = custom.PreferredUsername
		} else if custom.ObjectID != "" {
			principal = custom.ObjectID
		}
	}
	if principal == "" {
		return "", domain.NewUnauthorizedError("token has no usable principal claim")
	}

	return principal, nil
}
