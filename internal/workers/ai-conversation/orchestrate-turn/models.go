// internal/workers/ai-conversation/orchestrate-turn/models.go
package orchestrateturn

import (
	"context"

	"research-agent/internal/models"
	llmsynthesis "research-agent/internal/workers/ai-conversation/llm-synthesis"
)

type ActionKind string

const (
	ActionNeedClarification ActionKind = "need_clarification"
	ActionFinal             ActionKind = "final"
)

// Action is the outcome of one turn. A NeedClarification action carries only
// the question.
type Action struct {
	Kind               ActionKind           `json:"kind"`
	ClarifyingQuestion string               `json:"clarifying_question,omitempty"`
	Answer             *models.AgentAnswer  `json:"answer,omitempty"`
	Intent             *models.IntentResult `json:"intent,omitempty"`
	Plan               *models.Plan         `json:"plan,omitempty"`
	ToolResults        []models.ToolResult  `json:"tool_results,omitempty"`
}

func (a *Action) NeedsClarification() bool {
	return a != nil && a.Kind == ActionNeedClarification
}

type IntentClassifier interface {
	Classify(ctx context.Context, question string, profile *models.UserProfile) (*models.IntentResult, error)
}

type Planner interface {
	CreatePlan(ctx context.Context, question string, profile *models.UserProfile, intent *models.IntentResult) (*models.Plan, error)
}

type ToolExecutor interface {
	ExecuteStep(ctx context.Context, step models.PlanStep) []models.ToolResult
}

type Pedagogy interface {
	ChooseMode(intent *models.IntentResult, profile *models.UserProfile) models.LearningMode
	BuildSpec(mode models.LearningMode, profile *models.UserProfile) models.GenerationSpec
}

type Generator interface {
	Generate(ctx context.Context, in *llmsynthesis.Input) (*models.AgentAnswer, error)
}

type TurnOption func(*turnOptions)

type turnOptions struct {
	memoryContext string
}

// WithMemoryContext passes a learner memory block through to the generator.
func WithMemoryContext(s string) TurnOption {
	return func(o *turnOptions) { o.memoryContext = s }
}
