package parseuserintent

import (
	"fmt"
	"strings"

	"research-agent/internal/models"
)

const systemPrompt = `You are an intent classifier for a learning/research assistant.

Classify the user's message into one of:
- casual_curiosity
- guided_study
- professional_research
- urgent_troubleshooting

Return a JSON object strictly matching this schema:
{
    "intent": "...",
    "confidence": 0.0-1.0,
    "rationale": "1-2 sentences",
    "suggested_output": "concise|balanced|detailed",
    "should_ask_clarifying_question": true|false,
    "clarifying_question": "string or null"
}

Rules:
- If the user's purpose is ambiguous, set should_ask_clarifying_question=true and propose ONE clarifying question about why they are asking, not about answer format or length.
- Keep the rationale short.
- Confidence should be honest (0.6-0.9 typical).
`

func buildUserMessage(question string, profile *models.UserProfile) string {
	var b strings.Builder
	if profile != nil {
		fmt.Fprintf(&b, "User background: %s\n", profile.Background)
		fmt.Fprintf(&b, "User level: %s\n", profile.Level)
		fmt.Fprintf(&b, "User goals: %s\n", profile.Goals)
	}
	b.WriteString("\nUser message: ")
	b.WriteString(question)
	return b.String()
}

const cannedClarifyingQuestion = "What is your main goal here: a quick explanation out of curiosity, a structured study plan, in-depth professional research, or fixing a specific problem you are facing?"

var formatPhrases = []string{
	"overview", "detailed", "detail", "technical", "depth", "in-depth", "level of detail",
	"how deep", "high-level", "high level", "brief", "concise", "format", "length", "verbose",
}

// normalizeClarifyingQuestion replaces empty or format-oriented questions
// with a question that separates the four intents.
func normalizeClarifyingQuestion(q string) string {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" {
		return cannedClarifyingQuestion
	}
	lower := strings.ToLower(trimmed)
	for _, p := range formatPhrases {
		if strings.Contains(lower, p) {
			return cannedClarifyingQuestion
		}
	}
	return trimmed
}

// normalizeSuggestedOutput folds unknown values, including the common
// "balacned" misspelling, into balanced.
func normalizeSuggestedOutput(s string) models.OutputPreference {
	out, _ := models.ParseOutputPreference(strings.ToLower(strings.TrimSpace(s)))
	return out
}
