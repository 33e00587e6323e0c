package dialogue

// fallbackLines maps persona ID to deterministic utterances used when the
// generation service is unavailable or returns nothing usable.
var fallbackLines = map[string]map[TurnKind]string{
	"normal": {
		TurnGreeting: "Hi, I'm calling about my car. I've been having some brake issues and wondering if you could help me with a quote for brake pad replacement?",
		TurnResponse: "I see. Could you tell me more about the pricing and how long this would take?",
	},
	"unhappy": {
		TurnGreeting: "Hello, I'm calling because I'm not very happy with the service I received last time. I need more work done but I'm concerned about the quality.",
		TurnResponse: "Well, I hope you can do better this time. What's your plan to make sure this doesn't happen again?",
	},
	"angry": {
		TurnGreeting: "Listen, I've had it with you people. My car was supposed to be fixed last week and it's still having problems. What are you going to do about it?",
		TurnResponse: "That's not good enough! I've already wasted too much time and money on this. You need to fix this properly!",
	},
	"aggressive": {
		TurnGreeting: "I want to speak to someone in charge right now! Your shop has been giving me the runaround and I'm sick of it. Fix my car or I'm taking my business elsewhere!",
		TurnResponse: "Don't give me excuses! I want results and I want them now. You people are trying to rip me off!",
	},
}

const fallbackDefault = "I have a question about my car repair."

// FallbackUtterance returns the deterministic line for a persona and turn
// kind, selected without any external call.
func FallbackUtterance(personaID string, kind TurnKind) string {
	if lines, ok := fallbackLines[personaID]; ok {
		if line, ok := lines[kind]; ok {
			return line
		}
	}
	return fallbackDefault
}
