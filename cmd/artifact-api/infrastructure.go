// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/graph"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// setupJWTAuth configures JWT authentication for the marker API
func setupJWTAuth() (*auth.JWTAuth, error) {
	jwtAuthConfig := auth.JWTAuthConfig{
		IssuerURL:          os.Getenv("JWT_ISSUER_URL"),
		JWKSURL:            os.Getenv("JWKS_URL"),
		MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
	}
	if audience := os.Getenv("JWT_AUDIENCE"); audience != "" {
		jwtAuthConfig.Audience = []string{audience}
	}
	return auth.NewJWTAuth(jwtAuthConfig)
}

// setupGraphClient configures the Microsoft Graph client from the environment
func setupGraphClient(env environment) *graph.Client {
	return graph.NewClient(graph.Config{
		TenantID:     env.Graph.TenantID,
		ClientID:     env.Graph.ClientID,
		ClientSecret: env.Graph.ClientSecret,
	})
}

// setupNATS establishes the NATS connection and JetStream context. The
// connection closed handler releases the graceful shutdown wait group and
// signals the done channel so an unexpected disconnect stops the process.
func setupNATS(_ context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, jetstream.JetStream, error) {
	gracefulCloseWG.Add(1)
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.Name("lfx-v2-teams-artifact-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("NATS connection closed")
			gracefulCloseWG.Done()
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.With(logging.ErrKey, err).Error("NATS error")
		}),
	)
	if err != nil {
		gracefulCloseWG.Done()
		return nil, nil, err
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, nil, err
	}

	return natsConn, js, nil
}
