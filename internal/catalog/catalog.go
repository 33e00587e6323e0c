// Package catalog manages the persona and scenario templates backing
// coaching sessions. Templates live in a single JSON file with an in-memory
// cache; when the file is missing or unreadable, a built-in default set keeps
// sessions startable.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sparringbot/sparring/internal/domain"
)

// Templates is the on-disk shape of the template file.
type Templates struct {
	Personas  []domain.Persona  `json:"personalities"`
	Scenarios []domain.Scenario `json:"scenarios"`
}

// ErrNotFound is returned when updating or deleting an unknown template.
var ErrNotFound = errors.New("template not found")

// Catalog provides cached, file-backed template storage.
type Catalog struct {
	mu    sync.Mutex
	path  string
	cache *Templates
}

// New creates a catalog backed by the JSON file at path. The file does not
// need to exist yet; defaults are served until the first write.
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Personas returns all persona templates, falling back to the built-in
// defaults when the template file cannot be loaded.
func (c *Catalog) Personas() []domain.Persona {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked().Personas
}

// Scenarios returns all scenario templates, falling back to the built-in
// defaults when the template file cannot be loaded.
func (c *Catalog) Scenarios() []domain.Scenario {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked().Scenarios
}

// AddPersona appends a persona template, assigning an ID when absent.
func (c *Catalog) AddPersona(p domain.Persona) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	templates := c.loadLocked()
	templates.Personas = append(templates.Personas, p)
	return c.saveLocked(templates)
}

// UpdatePersona replaces the persona with the given ID.
func (c *Catalog) UpdatePersona(id string, p domain.Persona) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	templates := c.loadLocked()
	for i := range templates.Personas {
		if templates.Personas[i].ID == id {
			p.ID = id
			templates.Personas[i] = p
			return c.saveLocked(templates)
		}
	}
	return ErrNotFound
}

// DeletePersona removes the persona with the given ID.
func (c *Catalog) DeletePersona(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	templates := c.loadLocked()
	for i := range templates.Personas {
		if templates.Personas[i].ID == id {
			templates.Personas = append(templates.Personas[:i], templates.Personas[i+1:]...)
			return c.saveLocked(templates)
		}
	}
	return ErrNotFound
}

// AddScenario appends a scenario template, assigning an ID when absent.
func (c *Catalog) AddScenario(sc domain.Scenario) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	templates := c.loadLocked()
	templates.Scenarios = append(templates.Scenarios, sc)
	return c.saveLocked(templates)
}

// UpdateScenario replaces the scenario with the given ID.
func (c *Catalog) UpdateScenario(id string, sc domain.Scenario) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	templates := c.loadLocked()
	for i := range templates.Scenarios {
		if templates.Scenarios[i].ID == id {
			sc.ID = id
			templates.Scenarios[i] = sc
			return c.saveLocked(templates)
		}
	}
	return ErrNotFound
}

// DeleteScenario removes the scenario with the given ID.
func (c *Catalog) DeleteScenario(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	templates := c.loadLocked()
	for i := range templates.Scenarios {
		if templates.Scenarios[i].ID == id {
			templates.Scenarios = append(templates.Scenarios[:i], templates.Scenarios[i+1:]...)
			return c.saveLocked(templates)
		}
	}
	return ErrNotFound
}

func (c *Catalog) loadLocked() *Templates {
	if c.cache != nil {
		return c.cache
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to read template file, using defaults", "path", c.path, "error", err)
		}
		return defaultTemplates()
	}

	var templates Templates
	if err := json.Unmarshal(data, &templates); err != nil {
		slog.Warn("failed to parse template file, using defaults", "path", c.path, "error", err)
		return defaultTemplates()
	}

	c.cache = &templates
	return c.cache
}

func (c *Catalog) saveLocked(templates *Templates) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}

	data, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("write template file: %w", err)
	}

	c.cache = templates
	return nil
}
