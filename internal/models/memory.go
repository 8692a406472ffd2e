package models

type ExplanationStyle string

const (
	StyleSimple    ExplanationStyle = "simple"
	StyleBalanced  ExplanationStyle = "balanced"
	StyleTechnical ExplanationStyle = "technical"
)

type ResourcePreference string

const (
	ResourceMixed    ResourcePreference = "mixed"
	ResourceDocs     ResourcePreference = "docs"
	ResourceVideos   ResourcePreference = "videos"
	ResourceArticles ResourcePreference = "articles"
)

type MemoryPreferences struct {
	ExplanationStyle   ExplanationStyle   `json:"explanation_style"`
	ResourcePreference ResourcePreference `json:"resource_preference"`
	Verbosity          OutputPreference   `json:"verbosity"`
}

func DefaultMemoryPreferences() MemoryPreferences {
	return MemoryPreferences{
		ExplanationStyle:   StyleBalanced,
		ResourcePreference: ResourceMixed,
		Verbosity:          OutputBalanced,
	}
}

type MemoryItem struct {
	Timestamp string       `json:"ts"`
	Query     string       `json:"query"`
	Topic     string       `json:"topic"`
	Intent    string       `json:"intent"`
	Mode      LearningMode `json:"mode"`
	Summary   string       `json:"summary"`
}

type UserMemory struct {
	UserID      string            `json:"user_id"`
	History     []MemoryItem      `json:"history"`
	Topics      []string          `json:"topics"`
	LastTopic   string            `json:"last_topic,omitempty"`
	Preferences MemoryPreferences `json:"preferences"`
}

func NewUserMemory(userID string) *UserMemory {
	return &UserMemory{
		UserID:      userID,
		History:     []MemoryItem{},
		Topics:      []string{},
		Preferences: DefaultMemoryPreferences(),
	}
}
