// Package trainer implements the live coaching session core: the active
// session registry, the turn-taking orchestrator, and the WebSocket transport
// that feeds it.
package trainer

import (
	"errors"
	"sync"
	"time"

	"github.com/sparringbot/sparring/internal/domain"
)

// ErrSessionExists is returned when a connection already owns a live session.
var ErrSessionExists = errors.New("active session already exists for connection")

// ActiveSession is the ephemeral state of one in-progress session, owned
// exclusively by the connection that created it. Only that connection's
// serialized event handling may read or mutate it.
type ActiveSession struct {
	SessionID string
	AgentName string

	// Persona and Scenario are snapshots taken at session start; the
	// catalog is never re-consulted for a live session.
	Persona  domain.Persona
	Scenario domain.Scenario

	StartTime         time.Time
	Interactions      []domain.Interaction
	CurrentScore      float64
	TotalInteractions int
}

// Registry maps connection IDs to live session state. It is the only
// structure shared across connections; entries themselves are not.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*ActiveSession
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		active: make(map[string]*ActiveSession),
	}
}

// Create registers live state for a connection. At most one live session per
// connection: a second create fails with ErrSessionExists.
func (r *Registry) Create(connID string, state *ActiveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.active[connID]; exists {
		return ErrSessionExists
	}
	r.active[connID] = state
	return nil
}

// Get returns the live state for a connection, or nil if there is none.
func (r *Registry) Get(connID string) *ActiveSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[connID]
}

// Remove drops the live state for a connection. Removing an absent entry is
// a no-op; end and disconnect can both reach here.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, connID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
