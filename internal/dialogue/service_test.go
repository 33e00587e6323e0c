package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sparringbot/sparring/internal/domain"
	"github.com/sparringbot/sparring/internal/llm"
)

type stubClient struct {
	output string
	err    error
	last   llm.Request
}

func (s *stubClient) Complete(_ context.Context, req llm.Request) (string, error) {
	s.last = req
	return s.output, s.err
}

func TestClientUtterance_NilClientUsesFallback(t *testing.T) {
	svc := NewService(nil)

	got := svc.ClientUtterance(context.Background(), Request{
		Persona: domain.Persona{ID: "angry"},
		Kind:    TurnGreeting,
	})
	if got != FallbackUtterance("angry", TurnGreeting) {
		t.Errorf("expected angry greeting fallback, got %q", got)
	}
}

func TestClientUtterance_UsesCompletion(t *testing.T) {
	client := &stubClient{output: "My brakes are squealing again."}
	svc := NewService(client)

	got := svc.ClientUtterance(context.Background(), Request{
		Persona:  domain.Persona{ID: "normal", Name: "normal customer", Traits: []string{"calm", "polite"}},
		Scenario: domain.Scenario{ID: "brake_repair", Name: "Brake Repair", Context: "Customer hears squealing when braking"},
		Kind:     TurnGreeting,
	})
	if got != "My brakes are squealing again." {
		t.Errorf("expected completion output, got %q", got)
	}
	if !strings.Contains(client.last.System, "normal customer") {
		t.Errorf("expected persona in system prompt, got %q", client.last.System)
	}
	if !strings.Contains(client.last.System, "Brake Repair") {
		t.Errorf("expected scenario in greeting prompt, got %q", client.last.System)
	}
}

func TestClientUtterance_ErrorUsesFallback(t *testing.T) {
	svc := NewService(&stubClient{err: errors.New("upstream down")})

	got := svc.ClientUtterance(context.Background(), Request{
		Persona:      domain.Persona{ID: "aggressive"},
		Kind:         TurnResponse,
		AgentMessage: "We'll look at it today.",
	})
	if got != FallbackUtterance("aggressive", TurnResponse) {
		t.Errorf("expected aggressive response fallback, got %q", got)
	}
}

func TestClientUtterance_EmptyCompletionUsesFallback(t *testing.T) {
	svc := NewService(&stubClient{output: ""})

	got := svc.ClientUtterance(context.Background(), Request{
		Persona: domain.Persona{ID: "unhappy"},
		Kind:    TurnGreeting,
	})
	if got != FallbackUtterance("unhappy", TurnGreeting) {
		t.Errorf("expected unhappy greeting fallback, got %q", got)
	}
}

func TestFallbackUtterance(t *testing.T) {
	for _, personaID := range []string{"normal", "unhappy", "angry", "aggressive"} {
		greeting := FallbackUtterance(personaID, TurnGreeting)
		response := FallbackUtterance(personaID, TurnResponse)
		if greeting == "" || response == "" {
			t.Errorf("expected non-empty fallbacks for persona %s", personaID)
		}
		if greeting == response {
			t.Errorf("expected distinct greeting and response for persona %s", personaID)
		}
	}
}

func TestFallbackUtterance_UnknownPersona(t *testing.T) {
	got := FallbackUtterance("robot", TurnGreeting)
	if got != fallbackDefault {
		t.Errorf("expected default fallback for unknown persona, got %q", got)
	}
}
