package models

type UserLevel string

const (
	LevelBeginner     UserLevel = "beginner"
	LevelIntermediate UserLevel = "intermediate"
	LevelAdvanced     UserLevel = "advanced"
)

type OutputPreference string

const (
	OutputConcise  OutputPreference = "concise"
	OutputBalanced OutputPreference = "balanced"
	OutputDetailed OutputPreference = "detailed"
)

// UserProfile is declared once at onboarding and read-only during a turn.
type UserProfile struct {
	UserID             string           `json:"user_id"`
	Background         string           `json:"background"`
	Level              UserLevel        `json:"level"`
	Goals              string           `json:"goals"`
	PreferredOutput    OutputPreference `json:"preferred_output"`
	PreferredResources []string         `json:"preferred_resources"`
}

func ParseUserLevel(s string) (UserLevel, bool) {
	switch UserLevel(s) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return UserLevel(s), true
	}
	return LevelIntermediate, false
}

func ParseOutputPreference(s string) (OutputPreference, bool) {
	switch OutputPreference(s) {
	case OutputConcise, OutputBalanced, OutputDetailed:
		return OutputPreference(s), true
	}
	return OutputBalanced, false
}
