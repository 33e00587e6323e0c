package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sparringbot/sparring/internal/domain"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "scenarios.json"))
}

func TestCatalog_DefaultsWhenFileMissing(t *testing.T) {
	c := newTestCatalog(t)

	personas := c.Personas()
	if len(personas) != len(DefaultPersonas()) {
		t.Errorf("expected %d default personas, got %d", len(DefaultPersonas()), len(personas))
	}
	scenarios := c.Scenarios()
	if len(scenarios) != len(DefaultScenarios()) {
		t.Errorf("expected %d default scenarios, got %d", len(DefaultScenarios()), len(scenarios))
	}
}

func TestCatalog_DefaultsWhenFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	c := New(path)
	if len(c.Personas()) != len(DefaultPersonas()) {
		t.Error("expected defaults when template file is corrupt")
	}
}

func TestCatalog_LoadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.json")
	content := `{
		"personalities": [{"id": "vip", "name": "VIP Customer"}],
		"scenarios": [{"id": "detailing", "name": "Detailing"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write template file: %v", err)
	}

	c := New(path)
	personas := c.Personas()
	if len(personas) != 1 || personas[0].ID != "vip" {
		t.Errorf("expected persona from file, got %+v", personas)
	}
	scenarios := c.Scenarios()
	if len(scenarios) != 1 || scenarios[0].ID != "detailing" {
		t.Errorf("expected scenario from file, got %+v", scenarios)
	}
}

func TestCatalog_AddPersona(t *testing.T) {
	c := newTestCatalog(t)

	if err := c.AddPersona(domain.Persona{Name: "VIP Customer"}); err != nil {
		t.Fatalf("failed to add persona: %v", err)
	}

	personas := c.Personas()
	added := personas[len(personas)-1]
	if added.Name != "VIP Customer" {
		t.Errorf("expected added persona last, got %+v", added)
	}
	if added.ID == "" {
		t.Error("expected generated ID for persona without one")
	}

	// The write must survive a fresh catalog over the same file.
	fresh := New(c.path)
	if len(fresh.Personas()) != len(personas) {
		t.Error("expected persisted personas to load from file")
	}
}

func TestCatalog_UpdatePersona(t *testing.T) {
	c := newTestCatalog(t)

	if err := c.UpdatePersona("normal", domain.Persona{Name: "Calm Customer"}); err != nil {
		t.Fatalf("failed to update persona: %v", err)
	}

	for _, p := range c.Personas() {
		if p.ID == "normal" {
			if p.Name != "Calm Customer" {
				t.Errorf("expected updated name, got %s", p.Name)
			}
			return
		}
	}
	t.Error("expected persona normal to keep its ID after update")
}

func TestCatalog_UpdatePersonaMissing(t *testing.T) {
	c := newTestCatalog(t)
	if err := c.UpdatePersona("nope", domain.Persona{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalog_DeletePersona(t *testing.T) {
	c := newTestCatalog(t)

	before := len(c.Personas())
	if err := c.DeletePersona("angry"); err != nil {
		t.Fatalf("failed to delete persona: %v", err)
	}
	after := c.Personas()
	if len(after) != before-1 {
		t.Errorf("expected %d personas, got %d", before-1, len(after))
	}
	for _, p := range after {
		if p.ID == "angry" {
			t.Error("expected persona angry removed")
		}
	}

	if err := c.DeletePersona("angry"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestCatalog_ScenarioCRUD(t *testing.T) {
	c := newTestCatalog(t)

	if err := c.AddScenario(domain.Scenario{Name: "Detailing", Context: "Full interior detail"}); err != nil {
		t.Fatalf("failed to add scenario: %v", err)
	}
	scenarios := c.Scenarios()
	added := scenarios[len(scenarios)-1]
	if added.ID == "" {
		t.Error("expected generated ID for scenario without one")
	}

	if err := c.UpdateScenario(added.ID, domain.Scenario{Name: "Premium Detailing"}); err != nil {
		t.Fatalf("failed to update scenario: %v", err)
	}
	scenarios = c.Scenarios()
	if scenarios[len(scenarios)-1].Name != "Premium Detailing" {
		t.Errorf("expected updated scenario, got %+v", scenarios[len(scenarios)-1])
	}

	if err := c.DeleteScenario(added.ID); err != nil {
		t.Fatalf("failed to delete scenario: %v", err)
	}
	if err := c.DeleteScenario(added.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDefaultPersonas(t *testing.T) {
	personas := DefaultPersonas()
	wantIDs := map[string]bool{"normal": false, "unhappy": false, "angry": false, "aggressive": false}
	for _, p := range personas {
		if _, ok := wantIDs[p.ID]; ok {
			wantIDs[p.ID] = true
		}
		if len(p.Traits) == 0 {
			t.Errorf("expected traits for persona %s", p.ID)
		}
	}
	for id, seen := range wantIDs {
		if !seen {
			t.Errorf("expected default persona %s", id)
		}
	}
}

func TestDefaultScenarios(t *testing.T) {
	for _, sc := range DefaultScenarios() {
		if sc.ID == "" || sc.Name == "" {
			t.Errorf("expected populated scenario, got %+v", sc)
		}
		if sc.Context == "" {
			t.Errorf("expected context for scenario %s", sc.ID)
		}
	}
}
