// internal/workers/ai-conversation/llm-synthesis/handler.go
package llmsynthesis

import (
	"context"
	"fmt"

	"research-agent/internal/common/llm"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const TaskType = "llm-synthesis"

type Handler struct {
	config *Config
	llm    llm.Client
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		llm:    client,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Generate writes the final answer. Only LLM failures are returned; a reply
// that ignores the format still yields an answer.
func (h *Handler) Generate(ctx context.Context, in *Input) (*models.AgentAnswer, error) {
	system := buildSystemPrompt(in, h.config.MaxEvidencePerTool)

	raw, err := h.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: in.Query},
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	h.logger.Debug("raw generator output", map[string]interface{}{"raw": raw})

	parsed := parseReply(raw)
	bullets := parsed.bullets
	if len(bullets) == 0 {
		bullets = []string{unformattedBullet}
	}

	answer := &models.AgentAnswer{
		Explanation:   parsed.explanation,
		BulletSummary: bullets,
		Sections:      orderSections(in.Spec.RequiredSections, parsed.sections),
		Sources:       collectSources(in.ToolResults, h.config.MaxSources),
		Mode:          in.Spec.Mode,
		ModelName:     h.config.ModelName,
	}

	h.logger.Info("answer generated", map[string]interface{}{
		"mode":        string(answer.Mode),
		"bullets":     len(answer.BulletSummary),
		"sourceCount": len(answer.Sources),
		"forceFinal":  in.ForceFinal,
	})
	return answer, nil
}
