// internal/workers/ai-conversation/select-pedagogy/handler.go
package selectpedagogy

import (
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const TaskType = "select-pedagogy"

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// ChooseMode maps an intent to its learning mode. The profile is accepted
// for personalization but does not change the result.
func (h *Handler) ChooseMode(intent *models.IntentResult, _ *models.UserProfile) models.LearningMode {
	if intent == nil {
		return models.ModeQuickExplain
	}
	switch intent.Intent {
	case models.IntentUrgentTroubleshooting:
		return models.ModeFixMyProblem
	case models.IntentProfessionalResearch:
		return models.ModeDeepResearch
	case models.IntentGuidedStudy:
		return models.ModeGuidedStudy
	}
	return models.ModeQuickExplain
}

// BuildSpec returns the fixed section list and style notes for a mode.
// Unknown modes get the fix_my_problem spec.
func (h *Handler) BuildSpec(mode models.LearningMode, _ *models.UserProfile) models.GenerationSpec {
	rule, ok := h.config.ModeRules[mode]
	if !ok {
		mode = models.ModeFixMyProblem
		rule = h.config.ModeRules[mode]
	}
	sections := make([]string, len(rule.RequiredSections))
	copy(sections, rule.RequiredSections)

	h.logger.Debug("generation spec selected", map[string]interface{}{
		"mode":     string(mode),
		"sections": len(sections),
	})
	return models.GenerationSpec{
		Mode:             mode,
		RequiredSections: sections,
		StyleNotes:       rule.StyleNotes,
	}
}
