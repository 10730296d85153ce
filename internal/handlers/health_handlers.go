// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-teams-artifact-service/internal/logging"
)

// HealthHandler serves the liveness, readiness and store health endpoints.
type HealthHandler struct {
	storeHealth domain.StoreHealthChecker
	ready       func() bool
}

// NewHealthHandler creates the health HTTP handler. The ready callback
// reports whether the message consumer and services are wired up.
func NewHealthHandler(storeHealth domain.StoreHealthChecker, ready func() bool) *HealthHandler {
	return &HealthHandler{storeHealth: storeHealth, ready: ready}
}

// HandleLiveness implements GET /livez.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// HandleReadiness implements GET /readyz.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	if h.ready != nil && !h.ready() {
		http.Error(w, "service not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// HandleStoreHealth implements GET /health/db. It exercises a real store
// round trip and reports row counts, which doubles as a smoke check for the
// schema.
func (h *HealthHandler) HandleStoreHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.storeHealth.Check(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "store health check failed", logging.ErrKey, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
