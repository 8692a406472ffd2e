// internal/workers/ai-conversation/select-pedagogy/config.go
package selectpedagogy

import "research-agent/internal/models"

type ModeRule struct {
	RequiredSections []string
	StyleNotes       string
}

type Config struct {
	ModeRules map[models.LearningMode]ModeRule
}

func LoadConfig() *Config {
	return &Config{
		ModeRules: map[models.LearningMode]ModeRule{
			models.ModeQuickExplain: {
				RequiredSections: []string{"Explanation", "Analogy", "Key Points", "Next Steps"},
				StyleNotes:       "Be concise, friendly, and beginner-appropriate unless the user is advanced.",
			},
			models.ModeGuidedStudy: {
				RequiredSections: []string{"Overview", "7-10 Day Study Plan", "Resources", "Checkpoints"},
				StyleNotes:       "Provide a daily plan with goals, key concepts, actionable instructions, and 2-4 resources per day.",
			},
			models.ModeDeepResearch: {
				RequiredSections: []string{"Executive Summary", "Key Concepts", "Logical Progression Flow", "Reading List", "Open Questions"},
				StyleNotes:       "Be technical and structured. State distinctions and assumptions explicitly.",
			},
			models.ModeFixMyProblem: {
				RequiredSections: []string{"Clarify Goal", "Diagnosis Checklist", "Step-by-Step Fix", "Verification"},
				StyleNotes:       "Prioritize actionable steps, verify each step, and include common pitfalls.",
			},
		},
	}
}
