package domain

import (
	"time"
)

// GroupStats aggregates completed sessions sharing one grouping key.
type GroupStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"average_score"`
}

// SessionStats aggregates completed sessions, either globally or for one agent.
type SessionStats struct {
	TotalSessions     int                   `json:"total_sessions"`
	AverageScore      float64               `json:"average_score"`
	AverageDuration   time.Duration         `json:"average_duration"`
	PersonaBreakdown  map[string]GroupStats `json:"persona_breakdown"`
	ScenarioBreakdown map[string]GroupStats `json:"scenario_breakdown"`
}

// NewSessionStats returns an empty stats value with initialized breakdown maps.
func NewSessionStats() *SessionStats {
	return &SessionStats{
		PersonaBreakdown:  make(map[string]GroupStats),
		ScenarioBreakdown: make(map[string]GroupStats),
	}
}
