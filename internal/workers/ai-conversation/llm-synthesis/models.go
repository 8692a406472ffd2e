// internal/workers/ai-conversation/llm-synthesis/models.go
package llmsynthesis

import "research-agent/internal/models"

// Input carries everything the final answer is written from.
type Input struct {
	Query         string
	Profile       *models.UserProfile
	Intent        *models.IntentResult
	Plan          *models.Plan
	ToolResults   []models.ToolResult
	Spec          models.GenerationSpec
	ForceFinal    bool
	MemoryContext string
}
