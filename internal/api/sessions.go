package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/identity"
	"github.com/sparringbot/sparring/internal/store"
)

const defaultHistoryLimit = 50

// SessionHandler serves archived session queries.
type SessionHandler struct {
	repo store.Repository
}

// NewSessionHandler creates a session query handler.
func NewSessionHandler(repo store.Repository) *SessionHandler {
	return &SessionHandler{repo: repo}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/history", h.History)
		r.Get("/stats", h.Stats)
		r.Get("/my-sessions", h.MySessions)
		r.Get("/agent/{name}", h.AgentSessions)
		r.Get("/agent/{name}/stats", h.AgentStats)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
	})
}

// History returns recent sessions, newest first.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := h.repo.History(r.Context(), limit)
	if err != nil {
		slog.Error("failed to fetch session history", "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch session history")
		return
	}
	JSON(w, http.StatusOK, sessions)
}

// Stats returns aggregate statistics over all completed sessions.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.StatsGlobal(r.Context())
	if err != nil {
		slog.Error("failed to compute session stats", "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch session stats")
		return
	}
	JSON(w, http.StatusOK, stats)
}

// MySessions returns the requesting device's sessions using the derived
// agent name.
func (h *SessionHandler) MySessions(w http.ResponseWriter, r *http.Request) {
	agentName := identity.AgentNameFromContext(r.Context())
	sessions, err := h.repo.SessionsForAgent(r.Context(), agentName)
	if err != nil {
		slog.Error("failed to fetch agent sessions", "agent", agentName, "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch sessions")
		return
	}
	JSON(w, http.StatusOK, sessions)
}

// AgentSessions returns sessions for a named agent.
func (h *SessionHandler) AgentSessions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sessions, err := h.repo.SessionsForAgent(r.Context(), name)
	if err != nil {
		slog.Error("failed to fetch agent sessions", "agent", name, "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch sessions")
		return
	}
	JSON(w, http.StatusOK, sessions)
}

// AgentStats returns aggregate statistics for a named agent.
func (h *SessionHandler) AgentStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stats, err := h.repo.StatsForAgent(r.Context(), name)
	if err != nil {
		slog.Error("failed to compute agent stats", "agent", name, "error", err)
		Error(w, http.StatusInternalServerError, "failed to fetch agent stats")
		return
	}
	JSON(w, http.StatusOK, stats)
}

// Get returns one session with its full exchange log.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.repo.GetSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to fetch session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "server error")
		return
	}
	if session == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, session)
}

// Delete removes a session and its exchanges.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.repo.DeleteSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "server error")
		return
	}
	if !deleted {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "session deleted"})
}
