package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestInteraction_ZeroScoreSerialized(t *testing.T) {
	entry := Interaction{
		Type:      InteractionAgent,
		Text:      "This is not my problem.",
		Score:     0,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatalf("failed to marshal interaction: %v", err)
	}
	// A critical 0 on an agent turn must survive the wire; it is not an
	// absent score.
	if !strings.Contains(string(data), `"score":0`) {
		t.Errorf("expected explicit score field for 0, got %s", data)
	}
}

func TestSession_IsCompleted(t *testing.T) {
	s := &Session{Status: StatusActive}
	if s.IsCompleted() {
		t.Error("expected active session not completed")
	}
	s.Status = StatusCompleted
	if !s.IsCompleted() {
		t.Error("expected completed session reported completed")
	}
}
