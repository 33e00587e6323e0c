package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/catalog"
	"github.com/sparringbot/sparring/internal/domain"
)

// TemplateHandler serves persona and scenario template CRUD.
type TemplateHandler struct {
	catalog *catalog.Catalog
}

// NewTemplateHandler creates a template handler.
func NewTemplateHandler(c *catalog.Catalog) *TemplateHandler {
	return &TemplateHandler{catalog: c}
}

// RegisterRoutes registers template routes.
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/personalities", func(r chi.Router) {
		r.Get("/", h.ListPersonas)
		r.Post("/", h.AddPersona)
		r.Put("/{id}", h.UpdatePersona)
		r.Delete("/{id}", h.DeletePersona)
	})
	r.Route("/api/scenarios", func(r chi.Router) {
		r.Get("/", h.ListScenarios)
		r.Post("/", h.AddScenario)
		r.Put("/{id}", h.UpdateScenario)
		r.Delete("/{id}", h.DeleteScenario)
	})
	r.Get("/api/session-types", h.SessionTypes)
}

// ListPersonas returns all persona templates.
func (h *TemplateHandler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.catalog.Personas())
}

// AddPersona appends a persona template.
func (h *TemplateHandler) AddPersona(w http.ResponseWriter, r *http.Request) {
	var persona domain.Persona
	if err := json.NewDecoder(r.Body).Decode(&persona); err != nil {
		Error(w, http.StatusBadRequest, "invalid persona")
		return
	}
	if err := h.catalog.AddPersona(persona); err != nil {
		slog.Error("failed to add persona", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add personality")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "personality added"})
}

// UpdatePersona replaces a persona template by ID.
func (h *TemplateHandler) UpdatePersona(w http.ResponseWriter, r *http.Request) {
	var persona domain.Persona
	if err := json.NewDecoder(r.Body).Decode(&persona); err != nil {
		Error(w, http.StatusBadRequest, "invalid persona")
		return
	}
	h.writeTemplateResult(w, h.catalog.UpdatePersona(chi.URLParam(r, "id"), persona), "personality updated")
}

// DeletePersona removes a persona template by ID.
func (h *TemplateHandler) DeletePersona(w http.ResponseWriter, r *http.Request) {
	h.writeTemplateResult(w, h.catalog.DeletePersona(chi.URLParam(r, "id")), "personality deleted")
}

// ListScenarios returns all scenario templates.
func (h *TemplateHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.catalog.Scenarios())
}

// AddScenario appends a scenario template.
func (h *TemplateHandler) AddScenario(w http.ResponseWriter, r *http.Request) {
	var scenario domain.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		Error(w, http.StatusBadRequest, "invalid scenario")
		return
	}
	if err := h.catalog.AddScenario(scenario); err != nil {
		slog.Error("failed to add scenario", "error", err)
		Error(w, http.StatusInternalServerError, "failed to add scenario")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"message": "scenario added"})
}

// UpdateScenario replaces a scenario template by ID.
func (h *TemplateHandler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	var scenario domain.Scenario
	if err := json.NewDecoder(r.Body).Decode(&scenario); err != nil {
		Error(w, http.StatusBadRequest, "invalid scenario")
		return
	}
	h.writeTemplateResult(w, h.catalog.UpdateScenario(chi.URLParam(r, "id"), scenario), "scenario updated")
}

// DeleteScenario removes a scenario template by ID.
func (h *TemplateHandler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	h.writeTemplateResult(w, h.catalog.DeleteScenario(chi.URLParam(r, "id")), "scenario deleted")
}

// SessionTypes returns persona summaries for session setup pickers.
func (h *TemplateHandler) SessionTypes(w http.ResponseWriter, r *http.Request) {
	personas := h.catalog.Personas()
	summaries := make([]map[string]string, 0, len(personas))
	for _, p := range personas {
		summaries = append(summaries, map[string]string{
			"id":          p.ID,
			"name":        p.Name,
			"description": p.Description,
		})
	}
	JSON(w, http.StatusOK, summaries)
}

func (h *TemplateHandler) writeTemplateResult(w http.ResponseWriter, err error, message string) {
	switch {
	case err == nil:
		JSON(w, http.StatusOK, map[string]string{"message": message})
	case errors.Is(err, catalog.ErrNotFound):
		Error(w, http.StatusNotFound, "template not found")
	default:
		slog.Error("template mutation failed", "error", err)
		Error(w, http.StatusInternalServerError, "server error")
	}
}
