package models

type LearningIntent string

const (
	IntentCasualCuriosity       LearningIntent = "casual_curiosity"
	IntentGuidedStudy           LearningIntent = "guided_study"
	IntentProfessionalResearch  LearningIntent = "professional_research"
	IntentUrgentTroubleshooting LearningIntent = "urgent_troubleshooting"
)

// AllIntents is ordered by tie-break priority, highest first.
var AllIntents = []LearningIntent{
	IntentUrgentTroubleshooting,
	IntentProfessionalResearch,
	IntentGuidedStudy,
	IntentCasualCuriosity,
}

func (i LearningIntent) Valid() bool {
	for _, known := range AllIntents {
		if i == known {
			return true
		}
	}
	return false
}

type IntentResult struct {
	Intent                      LearningIntent   `json:"intent"`
	Confidence                  float64          `json:"confidence"`
	Rationale                   string           `json:"rationale"`
	SuggestedOutput             OutputPreference `json:"suggested_output"`
	ShouldAskClarifyingQuestion bool             `json:"should_ask_clarifying_question"`
	ClarifyingQuestion          string           `json:"clarifying_question,omitempty"`
	UseLLM                      bool             `json:"use_llm"`
}
