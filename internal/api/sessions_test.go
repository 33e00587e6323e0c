package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sparringbot/sparring/internal/domain"
)

// memRepo is an in-memory Repository for handler tests.
type memRepo struct {
	sessions map[string]*domain.Session
	order    []string
	statsErr error
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[string]*domain.Session)}
}

func (m *memRepo) add(session *domain.Session) {
	m.sessions[session.ID] = session
	m.order = append(m.order, session.ID)
}

func (m *memRepo) CreateSession(_ context.Context, session *domain.Session) error {
	m.add(session)
	return nil
}

func (m *memRepo) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	return m.sessions[sessionID], nil
}

func (m *memRepo) AppendExchange(_ context.Context, sessionID string, exchange domain.Exchange) (bool, error) {
	session, ok := m.sessions[sessionID]
	if !ok || session.IsCompleted() {
		return false, nil
	}
	session.Exchanges = append(session.Exchanges, exchange)
	return true, nil
}

func (m *memRepo) FinalizeSession(_ context.Context, sessionID string, finalScore float64, endTime time.Time) (*domain.Session, error) {
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if !session.IsCompleted() {
		session.Status = domain.StatusCompleted
		session.FinalScore = &finalScore
		session.EndTime = &endTime
	}
	return session, nil
}

func (m *memRepo) SetRecording(_ context.Context, sessionID string, hasRecording bool, recordingURL string) (bool, error) {
	session, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	session.HasRecording = hasRecording
	session.RecordingURL = recordingURL
	return true, nil
}

func (m *memRepo) History(_ context.Context, limit int) ([]*domain.Session, error) {
	var out []*domain.Session
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.sessions[m.order[i]])
	}
	return out, nil
}

func (m *memRepo) SessionsForAgent(_ context.Context, agentName string) ([]*domain.Session, error) {
	var out []*domain.Session
	for i := len(m.order) - 1; i >= 0; i-- {
		if s := m.sessions[m.order[i]]; s != nil && s.AgentName == agentName {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteSession(_ context.Context, sessionID string) (bool, error) {
	if _, ok := m.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(m.sessions, sessionID)
	return true, nil
}

func (m *memRepo) StatsForAgent(_ context.Context, _ string) (*domain.SessionStats, error) {
	return m.StatsGlobal(context.Background())
}

func (m *memRepo) StatsGlobal(_ context.Context) (*domain.SessionStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	stats := domain.NewSessionStats()
	for _, s := range m.sessions {
		if s.IsCompleted() {
			stats.TotalSessions++
		}
	}
	return stats, nil
}

func (m *memRepo) FinalizeAbandoned(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func (m *memRepo) Ping(_ context.Context) error { return nil }
func (m *memRepo) Close() error                 { return nil }

func newSessionRouter(repo *memRepo) *chi.Mux {
	r := chi.NewRouter()
	NewSessionHandler(repo).RegisterRoutes(r)
	return r
}

func archivedSession(id, agent string) *domain.Session {
	score := 2.5
	end := time.Now()
	return &domain.Session{
		ID:         id,
		AgentName:  agent,
		Persona:    domain.Persona{ID: "angry", Name: "Angry Customer"},
		Scenario:   domain.Scenario{ID: "brake_repair", Name: "Brake Repair"},
		StartTime:  end.Add(-time.Minute),
		EndTime:    &end,
		FinalScore: &score,
		Status:     domain.StatusCompleted,
	}
}

func TestSessionHandler_Get(t *testing.T) {
	repo := newMemRepo()
	repo.add(archivedSession("sess_1", "alice"))
	router := newSessionRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/sess_1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var session domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if session.ID != "sess_1" || session.AgentName != "alice" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestSessionHandler_GetMissing(t *testing.T) {
	router := newSessionRouter(newMemRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSessionHandler_History(t *testing.T) {
	repo := newMemRepo()
	repo.add(archivedSession("sess_1", "alice"))
	repo.add(archivedSession("sess_2", "bob"))
	repo.add(archivedSession("sess_3", "alice"))
	router := newSessionRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/history?limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sessions []domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("failed to decode sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "sess_3" {
		t.Errorf("expected newest session first, got %s", sessions[0].ID)
	}
}

func TestSessionHandler_AgentSessions(t *testing.T) {
	repo := newMemRepo()
	repo.add(archivedSession("sess_1", "alice"))
	repo.add(archivedSession("sess_2", "bob"))
	router := newSessionRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/agent/alice", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sessions []domain.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("failed to decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].AgentName != "alice" {
		t.Errorf("expected only alice's sessions, got %+v", sessions)
	}
}

func TestSessionHandler_Stats(t *testing.T) {
	repo := newMemRepo()
	repo.add(archivedSession("sess_1", "alice"))
	router := newSessionRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats domain.SessionStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalSessions != 1 {
		t.Errorf("expected 1 completed session, got %d", stats.TotalSessions)
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	repo := newMemRepo()
	repo.add(archivedSession("sess_1", "alice"))
	router := newSessionRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/sess_1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/sess_1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", rec.Code)
	}
}
