// Package domain contains core domain types for the Sparring application.
package domain

// Persona is a named behavioral template driving simulated client dialogue.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// Scenario is a situational template paired with a persona for a session.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Context     string `json:"context,omitempty"`
}
