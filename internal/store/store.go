// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/sparringbot/sparring/internal/domain"
)

// Repository defines the interface for persisting coaching sessions.
//
// Lookups return (nil, nil) for absent records. Every mutating call is
// durable before it returns; there is no background flush.
type Repository interface {
	// CreateSession persists a new session record with its persona and
	// scenario snapshots.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session with its exchanges in append order.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// AppendExchange appends one exchange to an active session. Returns
	// false (without error) if the session is unknown or already completed.
	AppendExchange(ctx context.Context, sessionID string, exchange domain.Exchange) (bool, error)

	// FinalizeSession marks a session completed, setting end time, final
	// score and duration. Finalizing an already-completed session is a safe
	// no-op that returns the stored record unchanged. Returns (nil, nil) if
	// the session is unknown.
	FinalizeSession(ctx context.Context, sessionID string, finalScore float64, endTime time.Time) (*domain.Session, error)

	// SetRecording flips the recording flag and locator for a session
	// without touching exchanges or scores. Returns false if the session is
	// unknown.
	SetRecording(ctx context.Context, sessionID string, hasRecording bool, recordingURL string) (bool, error)

	// History returns sessions ordered by start time, newest first.
	History(ctx context.Context, limit int) ([]*domain.Session, error)

	// SessionsForAgent returns an agent's sessions, newest first.
	SessionsForAgent(ctx context.Context, agentName string) ([]*domain.Session, error)

	// DeleteSession removes a session and its exchanges. Returns false if
	// the session is unknown.
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// StatsForAgent aggregates one agent's completed sessions.
	StatsForAgent(ctx context.Context, agentName string) (*domain.SessionStats, error)

	// StatsGlobal aggregates all completed sessions.
	StatsGlobal(ctx context.Context) (*domain.SessionStats, error)

	// FinalizeAbandoned completes sessions stuck in the active state longer
	// than ttl, scoring them from their persisted exchanges. Returns the
	// number of sessions finalized.
	FinalizeAbandoned(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
