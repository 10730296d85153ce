// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/pkg/constants"
)

// AuthMiddleware creates a middleware that validates the bearer token and
// stores the caller principal in the request context.
func AuthMiddleware(jwtAuth *auth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			principal, err := jwtAuth.ParsePrincipal(ctx, token)
			if err != nil {
				slog.WarnContext(ctx, "rejecting unauthenticated request", logging.ErrKey, err)
				http.Error(w, "unauthorized", domain.HTTPStatus(err))
				return
			}

			ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
			ctx = logging.AppendCtx(ctx, slog.String("principal", principal))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(constants.PrincipalContextID).(string)
	return principal, ok && principal != ""
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(constants.AuthorizationHeader)
	if header == "" {
		header = r.Header.Get("Authorization")
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}
	return token
}
