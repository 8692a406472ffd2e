// internal/workers/ai-conversation/select-pedagogy/handler_test.go
package selectpedagogy

import (
	"testing"

	"research-agent/internal/common/logger"
	"research-agent/internal/models"

	"github.com/stretchr/testify/assert"
)

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestChooseMode(t *testing.T) {
	tests := []struct {
		intent models.LearningIntent
		want   models.LearningMode
	}{
		{models.IntentUrgentTroubleshooting, models.ModeFixMyProblem},
		{models.IntentProfessionalResearch, models.ModeDeepResearch},
		{models.IntentGuidedStudy, models.ModeGuidedStudy},
		{models.IntentCasualCuriosity, models.ModeQuickExplain},
		{models.LearningIntent("something_else"), models.ModeQuickExplain},
	}

	h := createTestHandler(t)
	profiles := []*models.UserProfile{
		nil,
		{Level: models.LevelBeginner, PreferredOutput: models.OutputConcise},
		{Level: models.LevelAdvanced, PreferredOutput: models.OutputDetailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			for _, p := range profiles {
				assert.Equal(t, tt.want, h.ChooseMode(&models.IntentResult{Intent: tt.intent}, p))
			}
		})
	}
	assert.Equal(t, models.ModeQuickExplain, h.ChooseMode(nil, nil))
}

func TestBuildSpec(t *testing.T) {
	tests := []struct {
		mode     models.LearningMode
		sections []string
	}{
		{models.ModeQuickExplain, []string{"Explanation", "Analogy", "Key Points", "Next Steps"}},
		{models.ModeGuidedStudy, []string{"Overview", "7-10 Day Study Plan", "Resources", "Checkpoints"}},
		{models.ModeDeepResearch, []string{"Executive Summary", "Key Concepts", "Logical Progression Flow", "Reading List", "Open Questions"}},
		{models.ModeFixMyProblem, []string{"Clarify Goal", "Diagnosis Checklist", "Step-by-Step Fix", "Verification"}},
	}

	h := createTestHandler(t)
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			spec := h.BuildSpec(tt.mode, &models.UserProfile{Level: models.LevelAdvanced})
			assert.Equal(t, tt.mode, spec.Mode)
			assert.Equal(t, tt.sections, spec.RequiredSections)
			assert.NotEmpty(t, spec.StyleNotes)
		})
	}
}

func TestBuildSpec_ReturnsCopy(t *testing.T) {
	h := createTestHandler(t)
	spec := h.BuildSpec(models.ModeQuickExplain, nil)
	spec.RequiredSections[0] = "Changed"

	assert.Equal(t, "Explanation", h.BuildSpec(models.ModeQuickExplain, nil).RequiredSections[0])
}

func TestBuildSpec_UnknownModeFallsBack(t *testing.T) {
	spec := createTestHandler(t).BuildSpec(models.LearningMode("lecture"), nil)
	assert.Equal(t, models.ModeFixMyProblem, spec.Mode)
}
