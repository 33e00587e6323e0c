package catalog

import (
	"github.com/sparringbot/sparring/internal/domain"
)

// DefaultPersonas returns the built-in persona set used when the template
// file is unavailable. The orchestrator falls back to the same set when it
// cannot resolve a selector.
func DefaultPersonas() []domain.Persona {
	return []domain.Persona{
		{
			ID:          "normal",
			Name:        "Normal Customer",
			Description: "Polite customer asking standard questions about car repair",
			Traits:      []string{"Patient and understanding", "Clearly explains the problem", "Asks about pricing and timelines"},
		},
		{
			ID:          "unhappy",
			Name:        "Unhappy Customer",
			Description: "Customer dissatisfied with previous service",
			Traits:      []string{"Expresses disappointment", "References a previous bad experience", "Still willing to work together"},
		},
		{
			ID:          "angry",
			Name:        "Angry Customer",
			Description: "Frustrated customer with service complaints",
			Traits:      []string{"Frustrated and demanding", "Complains about wasted time and money", "Needs de-escalation"},
		},
		{
			ID:          "aggressive",
			Name:        "Aggressive Customer",
			Description: "Very demanding and potentially hostile customer",
			Traits:      []string{"Hostile and confrontational", "Demands to speak to a manager", "Threatens to take business elsewhere"},
		},
	}
}

// DefaultScenarios returns the built-in scenario set used when the template
// file is unavailable.
func DefaultScenarios() []domain.Scenario {
	return []domain.Scenario{
		{
			ID:          "brake_repair",
			Name:        "Brake Repair",
			Description: "Squeaking brakes, needs pad replacement",
			Context:     "Customer had brake pads replaced last week, now hearing grinding noise. Typical cost $200-400.",
		},
		{
			ID:          "engine_diagnostic",
			Name:        "Engine Diagnostic",
			Description: "Check engine light on, possible sensor issue",
			Context:     "Check engine light came on during the commute. Typical cost $100-300.",
		},
		{
			ID:          "transmission_service",
			Name:        "Transmission Service",
			Description: "Rough shifting, fluid change needed",
			Context:     "Car shifts roughly between second and third gear. Typical cost $150-500.",
		},
		{
			ID:          "ac_repair",
			Name:        "AC Repair",
			Description: "Not cooling properly, refrigerant leak",
			Context:     "Air conditioning blows warm air, suspected refrigerant leak. Typical cost $200-600.",
		},
		{
			ID:          "tire_replacement",
			Name:        "Tire Replacement",
			Description: "Worn tires, alignment needed",
			Context:     "Tires are worn below the tread indicator and the car pulls right. Typical cost $400-800.",
		},
	}
}

func defaultTemplates() *Templates {
	return &Templates{
		Personas:  DefaultPersonas(),
		Scenarios: DefaultScenarios(),
	}
}
