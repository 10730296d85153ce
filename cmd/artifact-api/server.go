// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/handlers"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/middleware"
)

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(
	flags flags,
	webhookHandler *handlers.WebhookHandler,
	markerHandler *handlers.MarkerHandler,
	healthHandler *handlers.HealthHandler,
	jwtAuth *auth.JWTAuth,
	gracefulCloseWG *sync.WaitGroup,
) *http.Server {
	mux := http.NewServeMux()

	// The webhook is called by the platform, not by users, so it sits outside
	// the bearer-token middleware; notification authenticity is checked via
	// the client state inside the pipeline.
	mux.HandleFunc("POST /webhook/graph", webhookHandler.HandleNotification)

	authMiddleware := middleware.AuthMiddleware(jwtAuth)
	mux.Handle("POST /markers", authMiddleware(http.HandlerFunc(markerHandler.HandleCreate)))
	mux.Handle("GET /markers", authMiddleware(http.HandlerFunc(markerHandler.HandleList)))
	mux.Handle("GET /meetings/{meetingID}", authMiddleware(http.HandlerFunc(markerHandler.HandleGetMeeting)))

	mux.HandleFunc("GET /health/db", healthHandler.HandleStoreHealth)
	mux.HandleFunc("GET /livez", healthHandler.HandleLiveness)
	mux.HandleFunc("GET /readyz", healthHandler.HandleReadiness)

	var handler http.Handler = mux

	// Add HTTP middleware
	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)

	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
