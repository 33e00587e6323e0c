package trainer

import (
	"encoding/json"
	"time"

	"github.com/sparringbot/sparring/internal/domain"
)

// Inbound event types.
const (
	EventStartSession  = "startSession"
	EventAgentResponse = "agentResponse"
	EventEndSession    = "endSession"
)

// Outbound event types.
const (
	EventSessionStarted = "sessionStarted"
	EventClientSpeaking = "clientSpeaking"
	EventScoreUpdate    = "scoreUpdate"
	EventSessionReport  = "sessionReport"
	EventError          = "error"
)

// Envelope is the wire framing for both directions of the connection.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound event ready for marshaling.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StartSessionRequest is the payload of the startSession event. PersonaID
// and ScenarioID select templates by ID; Persona and Scenario, when present,
// override the lookup with raw template objects.
type StartSessionRequest struct {
	AgentName  string           `json:"agent_name"`
	PersonaID  string           `json:"persona_id"`
	ScenarioID string           `json:"scenario_id"`
	Persona    *domain.Persona  `json:"persona,omitempty"`
	Scenario   *domain.Scenario `json:"scenario,omitempty"`
}

// AgentResponseRequest is the payload of the agentResponse event.
type AgentResponseRequest struct {
	Transcript string `json:"transcript"`
}

// SessionStartedPayload announces the new session and its resolved templates.
type SessionStartedPayload struct {
	SessionID string          `json:"session_id"`
	Persona   domain.Persona  `json:"persona"`
	Scenario  domain.Scenario `json:"scenario"`
}

// ClientSpeakingPayload carries one simulated client utterance.
type ClientSpeakingPayload struct {
	Message   string    `json:"message"`
	PersonaID string    `json:"persona_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ScoreUpdatePayload carries the per-turn score and the running aggregate.
type ScoreUpdatePayload struct {
	InteractionScore  int             `json:"interaction_score"`
	OverallScore      float64         `json:"overall_score"`
	Feedback          domain.Feedback `json:"feedback"`
	TotalInteractions int             `json:"total_interactions"`
}

// SessionReportPayload is the end-of-session summary.
type SessionReportPayload struct {
	SessionID         string               `json:"session_id"`
	AgentName         string               `json:"agent_name"`
	PersonaID         string               `json:"persona_id"`
	DurationMs        int64                `json:"duration_ms"`
	FinalScore        float64              `json:"final_score"`
	TotalInteractions int                  `json:"total_interactions"`
	Interactions      []domain.Interaction `json:"interactions"`
}

// ErrorPayload reports an orchestration failure without closing the
// connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: message}}
}
