package domain

import (
	"time"
)

// Session lifecycle states.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Feedback is the qualitative bundle derived from a single turn score.
type Feedback struct {
	Level       string   `json:"level"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
	Color       string   `json:"color"`
}

// Exchange is one scored agent turn plus the generated client reply.
// An exchange is persisted only once both halves are known.
type Exchange struct {
	AgentMessage  string    `json:"agent_message"`
	AgentScore    int       `json:"agent_score"`
	Feedback      Feedback  `json:"feedback"`
	ClientMessage string    `json:"client_message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session is the durable record of one coaching session. Persona and scenario
// are snapshots copied at creation; later template edits never alter history.
type Session struct {
	ID           string        `json:"id"`
	AgentName    string        `json:"agent_name"`
	Persona      Persona       `json:"persona"`
	Scenario     Scenario      `json:"scenario"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	Exchanges    []Exchange    `json:"exchanges"`
	FinalScore   *float64      `json:"final_score,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Status       string        `json:"status"`
	HasRecording bool          `json:"has_recording"`
	RecordingURL string        `json:"recording_url,omitempty"`
}

// IsCompleted reports whether the session has been finalized.
func (s *Session) IsCompleted() bool {
	return s.Status == StatusCompleted
}

// Interaction trace entry types.
const (
	InteractionAgent  = "agent"
	InteractionClient = "client"
)

// Interaction is one entry in the in-memory conversation trace kept for the
// lifetime of a live session and echoed back in the session report. Score is
// always serialized: a 0 on an agent entry is a real critical score, not an
// absent value.
type Interaction struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
