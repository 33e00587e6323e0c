package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sparringbot/sparring/internal/domain"
	"github.com/sparringbot/sparring/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		agent_name TEXT NOT NULL,
		persona_id TEXT NOT NULL,
		persona_name TEXT NOT NULL,
		persona_json TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		scenario_name TEXT NOT NULL,
		scenario_json TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		final_score REAL,
		duration_ms INTEGER,
		status TEXT NOT NULL DEFAULT 'active',
		has_recording INTEGER NOT NULL DEFAULT 0,
		recording_url TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);
	CREATE INDEX IF NOT EXISTS idx_sessions_agent ON sessions(agent_name);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status, start_time);

	CREATE TABLE IF NOT EXISTS exchanges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		agent_message TEXT NOT NULL,
		agent_score INTEGER NOT NULL,
		feedback_json TEXT NOT NULL,
		client_message TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSession persists a new session record.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	personaJSON, err := json.Marshal(session.Persona)
	if err != nil {
		return fmt.Errorf("marshal persona snapshot: %w", err)
	}
	scenarioJSON, err := json.Marshal(session.Scenario)
	if err != nil {
		return fmt.Errorf("marshal scenario snapshot: %w", err)
	}

	query := `
	INSERT INTO sessions (
		id, agent_name, persona_id, persona_name, persona_json,
		scenario_id, scenario_name, scenario_json, start_time, status
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		session.ID, session.AgentName,
		session.Persona.ID, session.Persona.Name, string(personaJSON),
		session.Scenario.ID, session.Scenario.Name, string(scenarioJSON),
		session.StartTime.UnixMilli(), domain.StatusActive,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const sessionColumns = `
	id, agent_name, persona_json, scenario_json, start_time,
	end_time, final_score, duration_ms, status, has_recording, recording_url`

// GetSession retrieves a session by ID with its exchanges in append order.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)

	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if err := s.loadExchanges(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AppendExchange appends one exchange to an active session. The guard against
// unknown or completed sessions lives in the INSERT itself so the check and
// the write are a single atomic statement.
func (s *SQLiteStore) AppendExchange(ctx context.Context, sessionID string, exchange domain.Exchange) (bool, error) {
	feedbackJSON, err := json.Marshal(exchange.Feedback)
	if err != nil {
		return false, fmt.Errorf("marshal feedback: %w", err)
	}

	query := `
	INSERT INTO exchanges (session_id, agent_message, agent_score, feedback_json, client_message, created_at)
	SELECT ?, ?, ?, ?, ?, ?
	WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ? AND status = ?)`

	var clientMessage interface{}
	if exchange.ClientMessage != "" {
		clientMessage = exchange.ClientMessage
	}

	result, err := s.db.ExecContext(ctx, query,
		sessionID, exchange.AgentMessage, exchange.AgentScore,
		string(feedbackJSON), clientMessage, exchange.Timestamp.UnixMilli(),
		sessionID, domain.StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("append exchange: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// FinalizeSession marks a session completed. The status guard in the UPDATE
// makes a second finalize (end racing with disconnect) a no-op.
func (s *SQLiteStore) FinalizeSession(ctx context.Context, sessionID string, finalScore float64, endTime time.Time) (*domain.Session, error) {
	query := `
	UPDATE sessions SET
		end_time = ?,
		final_score = ?,
		duration_ms = ? - start_time,
		status = ?
	WHERE id = ? AND status = ?`

	maxRetries := 3
	baseDelay := 100 * time.Millisecond
	var err error
	for i := 0; i < maxRetries; i++ {
		_, err = s.db.ExecContext(ctx, query,
			endTime.UnixMilli(), finalScore, endTime.UnixMilli(),
			domain.StatusCompleted, sessionID, domain.StatusActive,
		)
		if err == nil {
			break
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("FinalizeSession hit SQLITE_BUSY, retrying",
				"session_id", sessionID, "attempt", i+1, "delay", delay)
			time.Sleep(delay)
			continue
		}
		return nil, fmt.Errorf("finalize session: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("finalize session after %d attempts: %w", maxRetries, err)
	}

	// Zero rows affected means either the session is unknown or it was
	// already completed; the read distinguishes the two.
	return s.GetSession(ctx, sessionID)
}

// SetRecording flips the recording flag and locator for a session.
func (s *SQLiteStore) SetRecording(ctx context.Context, sessionID string, hasRecording bool, recordingURL string) (bool, error) {
	var url interface{}
	if recordingURL != "" {
		url = recordingURL
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET has_recording = ?, recording_url = ? WHERE id = ?`,
		hasRecording, url, sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("set recording: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// History returns sessions ordered by start time, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY start_time DESC LIMIT ?`, limit)
}

// SessionsForAgent returns an agent's sessions, newest first.
func (s *SQLiteStore) SessionsForAgent(ctx context.Context, agentName string) ([]*domain.Session, error) {
	return s.querySessions(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE agent_name = ? ORDER BY start_time DESC`, agentName)
}

// DeleteSession removes a session and its exchanges.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	// Exchanges first: cascade requires foreign_keys pragma, which is off by
	// default in SQLite.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE session_id = ?`, sessionID); err != nil {
		return false, fmt.Errorf("delete exchanges: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// StatsForAgent aggregates one agent's completed sessions.
func (s *SQLiteStore) StatsForAgent(ctx context.Context, agentName string) (*domain.SessionStats, error) {
	return s.stats(ctx, `AND agent_name = ?`, agentName)
}

// StatsGlobal aggregates all completed sessions.
func (s *SQLiteStore) StatsGlobal(ctx context.Context) (*domain.SessionStats, error) {
	return s.stats(ctx, ``)
}

func (s *SQLiteStore) stats(ctx context.Context, filter string, args ...interface{}) (*domain.SessionStats, error) {
	stats := domain.NewSessionStats()

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(final_score), 0), COALESCE(AVG(duration_ms), 0)
		FROM sessions WHERE status = 'completed' `+filter, args...)

	var avgDurationMs float64
	if err := row.Scan(&stats.TotalSessions, &stats.AverageScore, &avgDurationMs); err != nil {
		return nil, fmt.Errorf("scan session stats: %w", err)
	}
	stats.AverageDuration = time.Duration(avgDurationMs) * time.Millisecond

	if err := s.breakdown(ctx, `persona_name`, filter, stats.PersonaBreakdown, args...); err != nil {
		return nil, err
	}
	if err := s.breakdown(ctx, `scenario_name`, filter, stats.ScenarioBreakdown, args...); err != nil {
		return nil, err
	}

	return stats, nil
}

func (s *SQLiteStore) breakdown(ctx context.Context, column, filter string, out map[string]domain.GroupStats, args ...interface{}) error {
	query := `
		SELECT ` + column + `, COUNT(*), COALESCE(AVG(final_score), 0)
		FROM sessions WHERE status = 'completed' ` + filter + `
		GROUP BY ` + column

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s breakdown: %w", column, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close breakdown rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		var name string
		var group domain.GroupStats
		if err := rows.Scan(&name, &group.Count, &group.AverageScore); err != nil {
			return fmt.Errorf("scan %s breakdown row: %w", column, err)
		}
		out[name] = group
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s breakdown: %w", column, err)
	}
	return nil
}

// FinalizeAbandoned completes sessions whose last activity is older than the
// TTL, scoring them from whatever exchanges were persisted before the
// connection vanished. Activity is the latest exchange timestamp, falling
// back to the start time for sessions that never got past the greeting; a
// long-running session with recent exchanges is live, not abandoned.
func (s *SQLiteStore) FinalizeAbandoned(ctx context.Context, ttl time.Duration) (int64, error) {
	now := time.Now()
	threshold := now.Add(-ttl).UnixMilli()

	query := `
	UPDATE sessions SET
		end_time = ?,
		final_score = COALESCE(
			(SELECT AVG(agent_score) FROM exchanges WHERE session_id = sessions.id), 0),
		duration_ms = ? - start_time,
		status = ?
	WHERE status = ? AND COALESCE(
		(SELECT MAX(created_at) FROM exchanges WHERE session_id = sessions.id),
		start_time) < ?`

	result, err := s.db.ExecContext(ctx, query,
		now.UnixMilli(), now.UnixMilli(),
		domain.StatusCompleted, domain.StatusActive, threshold,
	)
	if err != nil {
		return 0, fmt.Errorf("finalize abandoned sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) querySessions(ctx context.Context, query string, args ...interface{}) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "error", closeErr)
		}
	}()

	var sessions []*domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	for _, session := range sessions {
		if err := s.loadExchanges(ctx, session); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (s *SQLiteStore) loadExchanges(ctx context.Context, session *domain.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_message, agent_score, feedback_json, client_message, created_at
		FROM exchanges WHERE session_id = ? ORDER BY id`, session.ID)
	if err != nil {
		return fmt.Errorf("query exchanges: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close exchange rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		var exchange domain.Exchange
		var feedbackJSON string
		var clientMessage sql.NullString
		var createdAt int64

		if err := rows.Scan(&exchange.AgentMessage, &exchange.AgentScore,
			&feedbackJSON, &clientMessage, &createdAt); err != nil {
			return fmt.Errorf("scan exchange row: %w", err)
		}

		if err := json.Unmarshal([]byte(feedbackJSON), &exchange.Feedback); err != nil {
			return fmt.Errorf("unmarshal feedback: %w", err)
		}
		exchange.ClientMessage = clientMessage.String
		exchange.Timestamp = time.UnixMilli(createdAt)
		session.Exchanges = append(session.Exchanges, exchange)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate exchanges: %w", err)
	}
	return nil
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scannable) (*domain.Session, error) {
	var session domain.Session
	var personaJSON, scenarioJSON string
	var startTime int64
	var endTime, durationMs sql.NullInt64
	var finalScore sql.NullFloat64
	var recordingURL sql.NullString

	err := row.Scan(
		&session.ID, &session.AgentName, &personaJSON, &scenarioJSON,
		&startTime, &endTime, &finalScore, &durationMs,
		&session.Status, &session.HasRecording, &recordingURL,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(personaJSON), &session.Persona); err != nil {
		return nil, fmt.Errorf("unmarshal persona snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(scenarioJSON), &session.Scenario); err != nil {
		return nil, fmt.Errorf("unmarshal scenario snapshot: %w", err)
	}

	session.StartTime = time.UnixMilli(startTime)
	if endTime.Valid {
		t := time.UnixMilli(endTime.Int64)
		session.EndTime = &t
	}
	if finalScore.Valid {
		score := finalScore.Float64
		session.FinalScore = &score
	}
	if durationMs.Valid {
		session.Duration = time.Duration(durationMs.Int64) * time.Millisecond
	}
	session.RecordingURL = recordingURL.String

	return &session, nil
}
