package trainer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sparringbot/sparring/internal/catalog"
	"github.com/sparringbot/sparring/internal/dialogue"
	"github.com/sparringbot/sparring/internal/domain"
	"github.com/sparringbot/sparring/internal/store"
)

// DialogueGenerator produces the next simulated client utterance. It never
// fails; generation errors are recovered inside the implementation.
type DialogueGenerator interface {
	ClientUtterance(ctx context.Context, req dialogue.Request) string
}

// ResponseScorer evaluates agent utterances and derives feedback. Score
// results are always within the ordinal range.
type ResponseScorer interface {
	Score(ctx context.Context, transcript string, persona domain.Persona, history []domain.Interaction) int
	Feedback(score int) domain.Feedback
}

// TemplateSource resolves persona and scenario templates. Implementations
// fail open to built-in defaults rather than returning errors.
type TemplateSource interface {
	Personas() []domain.Persona
	Scenarios() []domain.Scenario
}

// Orchestrator drives the turn-taking protocol for live sessions. One
// connection's events must be invoked sequentially (the WebSocket read loop
// guarantees this); different connections may call in concurrently.
type Orchestrator struct {
	repo      store.Repository
	registry  *Registry
	generator DialogueGenerator
	scorer    ResponseScorer
	templates TemplateSource
}

// NewOrchestrator wires the session orchestrator.
func NewOrchestrator(repo store.Repository, registry *Registry, generator DialogueGenerator, scorer ResponseScorer, templates TemplateSource) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		registry:  registry,
		generator: generator,
		scorer:    scorer,
		templates: templates,
	}
}

// Registry exposes the active session registry, used by transport teardown.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// StartSession creates the durable session and live state for a connection
// and produces the opening client greeting. A connection that already owns a
// live session has it finalized and replaced. Persistence failures are
// logged; the live session proceeds regardless.
func (o *Orchestrator) StartSession(ctx context.Context, connID string, req StartSessionRequest) []Event {
	persona, scenario := o.resolveTemplates(req)

	agentName := strings.TrimSpace(req.AgentName)
	if agentName == "" {
		agentName = "Anonymous Agent"
	}

	if prior := o.registry.Get(connID); prior != nil {
		slog.Info("superseding live session", "conn_id", connID, "session_id", prior.SessionID)
		o.finalize(ctx, prior)
		o.registry.Remove(connID)
	}

	now := time.Now()
	session := &domain.Session{
		ID:        newSessionID(),
		AgentName: agentName,
		Persona:   persona,
		Scenario:  scenario,
		StartTime: now,
		Status:    domain.StatusActive,
	}
	if err := o.repo.CreateSession(ctx, session); err != nil {
		// The durable record may lag; the live session must not.
		slog.Error("failed to persist new session", "session_id", session.ID, "error", err)
	}

	state := &ActiveSession{
		SessionID: session.ID,
		AgentName: agentName,
		Persona:   persona,
		Scenario:  scenario,
		StartTime: now,
	}
	if err := o.registry.Create(connID, state); err != nil {
		slog.Error("failed to register live session", "conn_id", connID, "error", err)
		return []Event{errorEvent("Failed to start session")}
	}

	greeting := o.generator.ClientUtterance(ctx, dialogue.Request{
		Persona:  persona,
		Scenario: scenario,
		Kind:     dialogue.TurnGreeting,
	})
	state.Interactions = append(state.Interactions, domain.Interaction{
		Type:      domain.InteractionClient,
		Text:      greeting,
		Timestamp: time.Now(),
	})

	slog.Info("session started",
		"conn_id", connID, "session_id", session.ID,
		"agent", agentName, "persona_id", persona.ID, "scenario_id", scenario.ID)

	return []Event{
		{Type: EventSessionStarted, Payload: SessionStartedPayload{
			SessionID: session.ID,
			Persona:   persona,
			Scenario:  scenario,
		}},
		{Type: EventClientSpeaking, Payload: ClientSpeakingPayload{
			Message:   greeting,
			PersonaID: persona.ID,
			Timestamp: time.Now(),
		}},
	}
}

// AgentResponse processes one agent turn: score it, generate the client
// reply, fold the score into the running mean, persist the exchange, and
// report back. A connection without a live session is a silent no-op; the
// event can legitimately arrive after a disconnect race.
func (o *Orchestrator) AgentResponse(ctx context.Context, connID string, transcript string) []Event {
	state := o.registry.Get(connID)
	if state == nil {
		return nil
	}

	// Snapshot of the trace so far: both collaborator calls read the same
	// immutable history for this turn.
	history := make([]domain.Interaction, len(state.Interactions))
	copy(history, state.Interactions)

	var score int
	var reply string

	var wg sync.WaitGroup
	// Empty utterances score 0 without consulting the scorer at all.
	if strings.TrimSpace(transcript) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			score = o.scorer.Score(ctx, transcript, state.Persona, history)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reply = o.generator.ClientUtterance(ctx, dialogue.Request{
			Persona:      state.Persona,
			Scenario:     state.Scenario,
			Kind:         dialogue.TurnResponse,
			AgentMessage: transcript,
			History:      history,
		})
	}()
	wg.Wait()

	feedback := o.scorer.Feedback(score)
	now := time.Now()

	// The score for this turn (external or fallback) is settled above, so
	// it enters the counters exactly once.
	state.Interactions = append(state.Interactions, domain.Interaction{
		Type:      domain.InteractionAgent,
		Text:      transcript,
		Score:     score,
		Timestamp: now,
	})
	state.TotalInteractions++
	n := state.TotalInteractions
	state.CurrentScore = (state.CurrentScore*float64(n-1) + float64(score)) / float64(n)

	exchange := domain.Exchange{
		AgentMessage:  transcript,
		AgentScore:    score,
		Feedback:      feedback,
		ClientMessage: reply,
		Timestamp:     now,
	}
	if ok, err := o.repo.AppendExchange(ctx, state.SessionID, exchange); err != nil {
		slog.Error("failed to persist exchange", "session_id", state.SessionID, "error", err)
	} else if !ok {
		slog.Warn("exchange dropped: session unknown or completed", "session_id", state.SessionID)
	}

	state.Interactions = append(state.Interactions, domain.Interaction{
		Type:      domain.InteractionClient,
		Text:      reply,
		Timestamp: time.Now(),
	})

	return []Event{
		{Type: EventScoreUpdate, Payload: ScoreUpdatePayload{
			InteractionScore:  score,
			OverallScore:      state.CurrentScore,
			Feedback:          feedback,
			TotalInteractions: state.TotalInteractions,
		}},
		{Type: EventClientSpeaking, Payload: ClientSpeakingPayload{
			Message:   reply,
			PersonaID: state.Persona.ID,
			Timestamp: time.Now(),
		}},
	}
}

// EndSession finalizes the durable session and emits the session report.
// Without a live session this is a silent no-op.
func (o *Orchestrator) EndSession(ctx context.Context, connID string) []Event {
	state := o.registry.Get(connID)
	if state == nil {
		return nil
	}

	o.finalize(ctx, state)
	o.registry.Remove(connID)

	report := SessionReportPayload{
		SessionID:         state.SessionID,
		AgentName:         state.AgentName,
		PersonaID:         state.Persona.ID,
		DurationMs:        time.Since(state.StartTime).Milliseconds(),
		FinalScore:        state.CurrentScore,
		TotalInteractions: state.TotalInteractions,
		Interactions:      state.Interactions,
	}

	slog.Info("session ended",
		"conn_id", connID, "session_id", state.SessionID,
		"final_score", state.CurrentScore, "interactions", state.TotalInteractions)

	return []Event{{Type: EventSessionReport, Payload: report}}
}

// Disconnect finalizes like EndSession but emits nothing; the connection is
// gone. Safe to call after an explicit end: finalize is idempotent and
// removing an absent registry entry is a no-op.
func (o *Orchestrator) Disconnect(ctx context.Context, connID string) {
	state := o.registry.Get(connID)
	if state == nil {
		return
	}

	o.finalize(ctx, state)
	o.registry.Remove(connID)

	slog.Info("session finalized on disconnect",
		"conn_id", connID, "session_id", state.SessionID)
}

// finalize completes the durable record. The store's status guard makes a
// repeat call (end racing with disconnect) a no-op.
func (o *Orchestrator) finalize(ctx context.Context, state *ActiveSession) {
	if _, err := o.repo.FinalizeSession(ctx, state.SessionID, state.CurrentScore, time.Now()); err != nil {
		slog.Error("failed to finalize session", "session_id", state.SessionID, "error", err)
	}
}

// resolveTemplates picks the persona and scenario for a new session. Raw
// override objects win; otherwise templates resolve by ID against the
// catalog, defaulting to the first entry of each list.
func (o *Orchestrator) resolveTemplates(req StartSessionRequest) (domain.Persona, domain.Scenario) {
	var persona domain.Persona
	if req.Persona != nil {
		persona = *req.Persona
	} else {
		personas := o.templates.Personas()
		if len(personas) == 0 {
			personas = catalog.DefaultPersonas()
		}
		persona = personas[0]
		for _, p := range personas {
			if p.ID == req.PersonaID {
				persona = p
				break
			}
		}
	}

	var scenario domain.Scenario
	if req.Scenario != nil {
		scenario = *req.Scenario
	} else {
		scenarios := o.templates.Scenarios()
		if len(scenarios) == 0 {
			scenarios = catalog.DefaultScenarios()
		}
		scenario = scenarios[0]
		for _, sc := range scenarios {
			if sc.ID == req.ScenarioID {
				scenario = sc
				break
			}
		}
	}

	return persona, scenario
}

func newSessionID() string {
	return "sess_" + uuid.NewString()
}
