package scoring

import (
	"math"
	"strings"
)

var positiveWords = []string{"sorry", "understand", "help", "resolve", "solution", "apologize", "appreciate", "thank"}

var negativeWords = []string{"no", "can't", "impossible", "not my problem", "deal with it"}

// FallbackScore is the deterministic lexical heuristic used when the external
// scorer is unreachable or returns something unusable.
func FallbackScore(transcript string) int {
	text := strings.ToLower(transcript)
	score := 1.0

	positive := 0
	for _, word := range positiveWords {
		if strings.Contains(text, word) {
			positive++
		}
	}
	negative := 0
	for _, word := range negativeWords {
		if strings.Contains(text, word) {
			negative++
		}
	}

	switch {
	case positive > negative:
		score++
	case negative > positive:
		score--
	}

	// Professional address.
	if strings.Contains(text, "sir") || strings.Contains(text, "ma'am") || strings.Contains(text, "please") {
		score += 0.5
	}
	// Solution-oriented language.
	if strings.Contains(text, "let me") || strings.Contains(text, "i can") || strings.Contains(text, "we will") {
		score += 0.5
	}

	return Clamp(int(math.Round(score)))
}
