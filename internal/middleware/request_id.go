// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package middleware contains the HTTP middleware for the artifact service.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/pkg/constants"
)

// RequestIDMiddleware creates a middleware that attaches a request ID to the
// request context and response headers. An inbound X-REQUEST-ID is honored so
// callers can correlate retries.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(constants.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := r.Context()
			ctx = logging.AppendCtx(ctx, slog.String("request_id", requestID))
			ctx = context.WithValue(ctx, constants.RequestIDContextID, requestID)

			w.Header().Set(constants.RequestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
