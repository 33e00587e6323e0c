// Package dialogue generates simulated client utterances from a persona and
// scenario. Generation runs through an external completion service and fails
// open to deterministic persona-keyed lines, so a turn always produces a
// client reply.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sparringbot/sparring/internal/domain"
	"github.com/sparringbot/sparring/internal/llm"
)

// TurnKind distinguishes the synthetic opening turn from in-conversation
// replies.
type TurnKind string

// Turn kinds.
const (
	TurnGreeting TurnKind = "greeting"
	TurnResponse TurnKind = "response"
)

const (
	maxUtteranceTokens   = 100
	utteranceTemperature = 0.8
)

// Request carries everything needed to produce the next client utterance.
type Request struct {
	Persona      domain.Persona
	Scenario     domain.Scenario
	Kind         TurnKind
	AgentMessage string
	History      []domain.Interaction
}

// Service produces client utterances.
type Service struct {
	client llm.Client
}

// NewService creates a dialogue service. A nil client means every utterance
// comes from the fallback set.
func NewService(client llm.Client) *Service {
	return &Service{client: client}
}

// ClientUtterance returns the next client utterance for the request. External
// failure is recovered locally and never propagated.
func (s *Service) ClientUtterance(ctx context.Context, req Request) string {
	if s.client == nil {
		return FallbackUtterance(req.Persona.ID, req.Kind)
	}

	utterance, err := s.client.Complete(ctx, llm.Request{
		System:      buildPrompt(req),
		User:        userPrompt(req),
		MaxTokens:   maxUtteranceTokens,
		Temperature: utteranceTemperature,
	})
	if err != nil || utterance == "" {
		slog.Warn("dialogue generation failed, using fallback",
			"persona_id", req.Persona.ID, "kind", string(req.Kind), "error", err)
		return FallbackUtterance(req.Persona.ID, req.Kind)
	}
	return utterance
}

func buildPrompt(req Request) string {
	var b strings.Builder

	name := req.Persona.Name
	if name == "" {
		name = req.Persona.ID
	}
	fmt.Fprintf(&b, "You are a %s calling a car repair shop. ", name)
	if len(req.Persona.Traits) > 0 {
		fmt.Fprintf(&b, "Your personality traits: %s. ", strings.Join(req.Persona.Traits, ", "))
	}

	if req.Kind == TurnGreeting {
		fmt.Fprintf(&b, "Start the conversation by greeting and mentioning your car issue: %s - %s. ",
			req.Scenario.Name, scenarioDetail(req.Scenario))
	} else {
		fmt.Fprintf(&b, "Respond to the agent's message: %q. ", req.AgentMessage)
	}

	b.WriteString("Keep responses natural, under 2 sentences, and match your personality.")
	return b.String()
}

func userPrompt(req Request) string {
	if req.Kind == TurnGreeting {
		return "Start the conversation"
	}
	return req.AgentMessage
}

func scenarioDetail(sc domain.Scenario) string {
	if sc.Context != "" {
		return sc.Context
	}
	return sc.Description
}
