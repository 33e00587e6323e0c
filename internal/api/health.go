package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/store"
)

// HealthHandler reports service liveness and database reachability.
type HealthHandler struct {
	repo store.Repository
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(repo store.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// RegisterRoutes registers the health route.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health responds with service status. Degraded if the database is
// unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  "database unreachable",
		})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
