package parseuserintent

import "research-agent/internal/models"

// RuleScores is the per-intent signal strength from the rule stage.
type RuleScores map[models.LearningIntent]float64

// RuleOutcome is the rule stage verdict before any escalation.
type RuleOutcome struct {
	Scores     RuleScores
	Best       models.LearningIntent
	BestScore  float64
	RunnerUp   float64
	Confidence float64
	Matched    []string
}

// llmIntentPayload mirrors the JSON object the classifier prompt asks for.
type llmIntentPayload struct {
	Intent                      string  `json:"intent"`
	Confidence                  float64 `json:"confidence"`
	Rationale                   string  `json:"rationale"`
	SuggestedOutput             string  `json:"suggested_output"`
	ShouldAskClarifyingQuestion bool    `json:"should_ask_clarifying_question"`
	ClarifyingQuestion          *string `json:"clarifying_question"`
}
