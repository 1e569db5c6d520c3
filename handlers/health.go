// ABOUTME: HTTP handler for the health endpoint
// ABOUTME: Reports the active scenario and whether the store and cache backends answer

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/obgclub/capacity-planner/cache"
	"github.com/obgclub/capacity-planner/models"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Health returns API health status including store and cache status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	scenario := h.activeScenario()
	resp := models.HealthResponse{
		Status:      "ok",
		Scenario:    scenario.Name,
		Fingerprint: scenario.Fingerprint(),
		Store:       "not_configured",
		Cache:       "not_configured",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.store != nil {
		resp.Store = backendStatus(ctx, h.store, "store")
	}
	if h.cache != nil {
		if _, ok := h.cache.(*cache.Cache); ok {
			resp.Cache = "memory"
		} else {
			resp.Cache = backendStatus(ctx, h.cache, "cache")
		}
	}
	if resp.Store == "unavailable" || resp.Cache == "unavailable" {
		resp.Status = "degraded"
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func backendStatus(ctx context.Context, backend any, name string) string {
	p, ok := backend.(pinger)
	if !ok {
		return "ok"
	}
	if err := p.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "backend", name, "error", err)
		return "unavailable"
	}
	return "ok"
}
