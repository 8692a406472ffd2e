package models

type LearningMode string

const (
	ModeQuickExplain LearningMode = "quick_explain"
	ModeGuidedStudy  LearningMode = "guided_study"
	ModeDeepResearch LearningMode = "deep_research"
	ModeFixMyProblem LearningMode = "fix_my_problem"
)

type GenerationSpec struct {
	Mode             LearningMode `json:"mode"`
	RequiredSections []string     `json:"required_sections"`
	StyleNotes       string       `json:"style_notes"`
}

type AnswerSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type SourceItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type AgentAnswer struct {
	Explanation   string          `json:"explanation"`
	BulletSummary []string        `json:"bullet_summary"`
	Sections      []AnswerSection `json:"sections"`
	Sources       []SourceItem    `json:"sources"`
	Mode          LearningMode    `json:"mode"`
	ModelName     string          `json:"model_name,omitempty"`
}
