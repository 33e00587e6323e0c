package scoring

import (
	"github.com/sparringbot/sparring/internal/domain"
)

// Feedback severity levels, one per score value.
const (
	LevelCritical         = "CRITICAL"
	LevelNeedsImprovement = "NEEDS IMPROVEMENT"
	LevelSatisfactory     = "SATISFACTORY"
	LevelExcellent        = "EXCELLENT"
)

var feedbackTable = map[int]domain.Feedback{
	0: {
		Level:   LevelCritical,
		Message: "Immediate intervention required. Response was unprofessional or harmful.",
		Suggestions: []string{
			"Review company customer service policies",
			"Practice active listening techniques",
			"Learn de-escalation strategies",
			"Improve professional communication",
		},
		Color: "#dc3545",
	},
	1: {
		Level:   LevelNeedsImprovement,
		Message: "Below standard performance. Requires thorough training.",
		Suggestions: []string{
			"Show more empathy and understanding",
			"Address customer concerns directly",
			"Improve problem-solving approach",
			"Practice professional language",
		},
		Color: "#fd7e14",
	},
	2: {
		Level:   LevelSatisfactory,
		Message: "Adequate performance with room for improvement.",
		Suggestions: []string{
			"Enhance empathy in responses",
			"Provide more detailed solutions",
			"Improve proactive communication",
			"Strengthen relationship building",
		},
		Color: "#ffc107",
	},
	3: {
		Level:   LevelExcellent,
		Message: "Outstanding customer service performance!",
		Suggestions: []string{
			"Continue excellent work",
			"Mentor other team members",
			"Share best practices",
			"Maintain this high standard",
		},
		Color: "#28a745",
	},
}

// Feedback returns the fixed bundle for a score value. Unknown scores get the
// needs-improvement bundle; unreachable once scores are clamped.
func Feedback(score int) domain.Feedback {
	if fb, ok := feedbackTable[score]; ok {
		return fb
	}
	return feedbackTable[1]
}

// Feedback exposes the table through the service so the orchestrator needs a
// single scoring dependency.
func (s *Service) Feedback(score int) domain.Feedback {
	return Feedback(score)
}
