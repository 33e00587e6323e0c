// Package scoring evaluates agent responses on the 0-3 ordinal scale and
// derives per-turn feedback. Scoring runs through an external completion
// service and fails open to a lexical heuristic.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sparringbot/sparring/internal/domain"
	"github.com/sparringbot/sparring/internal/llm"
)

// Score bounds of the ordinal scale.
const (
	MinScore = 0
	MaxScore = 3
)

const (
	maxScoreTokens   = 10
	scoreTemperature = 0.3
)

// Service scores agent responses.
type Service struct {
	client llm.Client
}

// NewService creates a scoring service. A nil client means every score comes
// from the lexical fallback.
func NewService(client llm.Client) *Service {
	return &Service{client: client}
}

// Score evaluates one agent utterance against the persona context. Empty or
// whitespace-only utterances short-circuit to 0 without any external call.
// External failure or malformed output is recovered via the lexical
// heuristic; the result is always within [MinScore, MaxScore].
func (s *Service) Score(ctx context.Context, transcript string, persona domain.Persona, history []domain.Interaction) int {
	if strings.TrimSpace(transcript) == "" {
		return MinScore
	}
	if s.client == nil {
		return FallbackScore(transcript)
	}

	raw, err := s.client.Complete(ctx, llm.Request{
		System:      scoringPrompt(transcript, persona),
		User:        transcript,
		MaxTokens:   maxScoreTokens,
		Temperature: scoreTemperature,
	})
	if err != nil {
		slog.Warn("scoring failed, using lexical fallback",
			"persona_id", persona.ID, "error", err)
		return FallbackScore(transcript)
	}

	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("scorer returned non-numeric output, using lexical fallback",
			"persona_id", persona.ID, "output", raw)
		return FallbackScore(transcript)
	}
	return Clamp(score)
}

// Clamp bounds a score to the closed ordinal range.
func Clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func scoringPrompt(transcript string, persona domain.Persona) string {
	personaName := persona.Name
	if personaName == "" {
		personaName = persona.ID
	}

	return fmt.Sprintf(`You are an expert customer service trainer evaluating an agent's response to a %s.

SCORING CRITERIA (0-3 scale):
0 = Very poor behavior - Rude, unprofessional, dismissive, or harmful. Needs strict action.
1 = Below moderate - Lacks empathy, poor communication, doesn't address concerns. Needs thorough training.
2 = Moderate - Professional but could improve empathy, problem-solving, or communication. Needs further training.
3 = Good/Excellent - Empathetic, professional, addresses concerns effectively, demonstrates excellent customer service.

EVALUATION FACTORS:
- Tone and professionalism
- Empathy and understanding
- Problem-solving approach
- Addressing customer concerns
- De-escalation skills (especially for angry/aggressive customers)
- Clear communication
- Offering solutions

Agent's response: %q

Respond with ONLY a number (0, 1, 2, or 3) representing the score.`, personaName, transcript)
}
