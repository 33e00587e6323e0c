package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/catalog"
	"github.com/sparringbot/sparring/internal/domain"
)

func newTemplateRouter(t *testing.T) *chi.Mux {
	t.Helper()
	c := catalog.New(filepath.Join(t.TempDir(), "scenarios.json"))
	r := chi.NewRouter()
	NewTemplateHandler(c).RegisterRoutes(r)
	return r
}

func TestTemplateHandler_ListPersonas(t *testing.T) {
	router := newTemplateRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personalities", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var personas []domain.Persona
	if err := json.Unmarshal(rec.Body.Bytes(), &personas); err != nil {
		t.Fatalf("failed to decode personas: %v", err)
	}
	if len(personas) == 0 {
		t.Error("expected default personas")
	}
}

func TestTemplateHandler_AddPersona(t *testing.T) {
	router := newTemplateRouter(t)

	body := strings.NewReader(`{"name": "VIP Customer", "traits": ["demanding"]}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/personalities", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/personalities", nil))
	var personas []domain.Persona
	_ = json.Unmarshal(rec.Body.Bytes(), &personas)
	if personas[len(personas)-1].Name != "VIP Customer" {
		t.Errorf("expected added persona, got %+v", personas[len(personas)-1])
	}
}

func TestTemplateHandler_AddPersonaMalformed(t *testing.T) {
	router := newTemplateRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/personalities", strings.NewReader("{bad")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTemplateHandler_UpdatePersonaMissing(t *testing.T) {
	router := newTemplateRouter(t)

	body := strings.NewReader(`{"name": "X"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/personalities/nope", body))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestTemplateHandler_ScenarioCRUD(t *testing.T) {
	router := newTemplateRouter(t)

	body := strings.NewReader(`{"id": "detailing", "name": "Detailing", "context": "Full detail"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scenarios", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 adding scenario, got %d", rec.Code)
	}

	body = strings.NewReader(`{"name": "Premium Detailing"}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/scenarios/detailing", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 updating scenario, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/scenarios/detailing", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 deleting scenario, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/scenarios/detailing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestTemplateHandler_SessionTypes(t *testing.T) {
	router := newTemplateRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session-types", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summaries []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("failed to decode summaries: %v", err)
	}
	if len(summaries) == 0 {
		t.Fatal("expected persona summaries")
	}
	for _, s := range summaries {
		if s["id"] == "" || s["name"] == "" {
			t.Errorf("expected id and name in summary, got %+v", s)
		}
		if _, ok := s["traits"]; ok {
			t.Error("expected summaries without full trait lists")
		}
	}
}
