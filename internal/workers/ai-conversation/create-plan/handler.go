package createplan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/common/jsonextract"
	"research-agent/internal/common/llm"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const TaskType = "create-plan"

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

// CreatePlan asks the LLM for a step plan. Business rules such as ending
// with finalize are left to the prompt; only the shape is validated here.
func (h *Handler) CreatePlan(ctx context.Context, question string, profile *models.UserProfile, intent *models.IntentResult) (*models.Plan, error) {
	raw, err := h.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildUserMessage(question, profile, intent)},
	})
	if err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	h.logger.Debug("raw planner output", map[string]interface{}{"raw": raw})

	obj, ok := jsonextract.ExtractObject(raw)
	if !ok {
		return nil, apperrors.NewParseError(TaskType, "no JSON object found in planner output")
	}
	if res := planSchema.Validate(obj); !res.Valid {
		return nil, apperrors.NewParseError(TaskType, res.Summary())
	}

	plan, err := decodePlan(obj)
	if err != nil {
		return nil, apperrors.NewParseError(TaskType, err.Error())
	}
	h.applyDefaults(plan, intent)

	h.logger.Info("plan created", map[string]interface{}{
		"goal":          plan.Goal,
		"stepCount":     len(plan.Steps),
		"researchSteps": len(plan.ResearchSteps()),
	})
	return plan, nil
}

func decodePlan(obj map[string]interface{}) (*models.Plan, error) {
	encoded, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var plan models.Plan
	if err := json.Unmarshal(encoded, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (h *Handler) applyDefaults(plan *models.Plan, intent *models.IntentResult) {
	if strings.TrimSpace(plan.Intent) == "" && intent != nil {
		plan.Intent = string(intent.Intent)
	}
	for i := range plan.Steps {
		step := &plan.Steps[i]
		if step.StepID == "" {
			step.StepID = fmt.Sprintf("s%d", i+1)
		}
		if step.Inputs == nil {
			step.Inputs = map[string]interface{}{}
		}
		for j := range step.ToolCalls {
			if step.ToolCalls[j].TopK == 0 {
				step.ToolCalls[j].TopK = h.config.DefaultTopK
			}
		}
	}
}
