package parseuserintent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/common/jsonextract"
	"research-agent/internal/common/llm"
	"research-agent/internal/common/logger"
	"research-agent/internal/common/metrics"
	"research-agent/internal/common/telemetry"
	"research-agent/internal/models"
)

const (
	TaskType = "parse-user-intent"

	ruleWeight    = 0.7
	llmWeight     = 0.3
	blendFloor    = 0.55
	blendCeiling  = 0.92
	guardrailDrop = 0.1
	guardrailMin  = 0.65
)

type Handler struct {
	config *Config
	llm    llm.Client
	sink   telemetry.Sink
	logger logger.Logger
}

func NewHandler(config *Config, client llm.Client, sink telemetry.Sink, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	if sink == nil {
		sink = telemetry.NopSink{}
	}
	return &Handler{
		config: config,
		llm:    client,
		sink:   sink,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Classify returns the learning intent behind a question. LLM output that
// cannot be recovered as a schema-valid object yields a ParseError.
func (h *Handler) Classify(ctx context.Context, question string, profile *models.UserProfile) (*models.IntentResult, error) {
	rule := ScoreRules(question)

	if h.acceptRule(question, rule) {
		result := &models.IntentResult{
			Intent:          rule.Best,
			Confidence:      rule.Confidence,
			Rationale:       ruleRationale(rule),
			SuggestedOutput: profileOutput(profile),
			UseLLM:          false,
		}
		h.emit(question, result, rule, false)
		metrics.IntentClassifications.WithLabelValues(string(result.Intent), "rules").Inc()
		h.logger.Info("intent classified by rules", map[string]interface{}{
			"intent":     result.Intent,
			"confidence": result.Confidence,
		})
		return result, nil
	}

	h.logger.Debug("escalating intent classification", map[string]interface{}{
		"ruleIntent":     rule.Best,
		"ruleConfidence": rule.Confidence,
		"bestScore":      rule.BestScore,
		"runnerUp":       rule.RunnerUp,
	})

	payload, err := h.askLLM(ctx, question, profile)
	if err != nil {
		return nil, err
	}

	result, guardrail := blend(question, rule, payload)
	h.emit(question, result, rule, guardrail)
	metrics.IntentClassifications.WithLabelValues(string(result.Intent), "llm").Inc()
	h.logger.Info("intent classified with llm", map[string]interface{}{
		"intent":     result.Intent,
		"confidence": result.Confidence,
		"guardrail":  guardrail,
		"shouldAsk":  result.ShouldAskClarifyingQuestion,
	})
	return result, nil
}

func (h *Handler) acceptRule(question string, rule RuleOutcome) bool {
	return rule.Confidence >= h.config.AcceptConfidence &&
		wordCount(question) >= h.config.MinWords &&
		rule.BestScore-rule.RunnerUp >= h.config.MinScoreGap
}

func (h *Handler) askLLM(ctx context.Context, question string, profile *models.UserProfile) (*llmIntentPayload, error) {
	raw, err := h.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: buildUserMessage(question, profile)},
	})
	if err != nil {
		return nil, fmt.Errorf("intent classification: %w", err)
	}

	h.logger.Debug("raw intent classifier output", map[string]interface{}{"raw": raw})

	obj, ok := jsonextract.ExtractObject(raw)
	if !ok {
		return nil, apperrors.NewParseError(TaskType, "no JSON object found in classifier output")
	}
	if res := intentSchema.Validate(obj); !res.Valid {
		return nil, apperrors.NewParseError(TaskType, res.Summary())
	}

	encoded, err := json.Marshal(obj)
	if err != nil {
		return nil, apperrors.NewParseError(TaskType, err.Error())
	}
	var payload llmIntentPayload
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, apperrors.NewParseError(TaskType, err.Error())
	}
	return &payload, nil
}

// blend merges the rule and LLM verdicts and applies the "what is" guardrail.
func blend(question string, rule RuleOutcome, payload *llmIntentPayload) (*models.IntentResult, bool) {
	result := &models.IntentResult{
		Intent:          models.LearningIntent(payload.Intent),
		Confidence:      BlendConfidence(rule.Confidence, payload.Confidence),
		Rationale:       strings.TrimSpace(payload.Rationale),
		SuggestedOutput: normalizeSuggestedOutput(payload.SuggestedOutput),
		UseLLM:          true,
	}

	guardrail := false
	if result.Intent == models.IntentGuidedStudy && whatIsPattern.MatchString(strings.ToLower(question)) {
		result.Intent = models.IntentCasualCuriosity
		result.Confidence = math.Max(guardrailMin, result.Confidence-guardrailDrop)
		guardrail = true
	}

	if result.Intent != models.IntentUrgentTroubleshooting && payload.ShouldAskClarifyingQuestion {
		q := ""
		if payload.ClarifyingQuestion != nil {
			q = *payload.ClarifyingQuestion
		}
		result.ShouldAskClarifyingQuestion = true
		result.ClarifyingQuestion = normalizeClarifyingQuestion(q)
	}
	return result, guardrail
}

// BlendConfidence is 0.7*rule + 0.3*llm, with llm clamped to [0,1] and the
// sum clamped to [0.55, 0.92].
func BlendConfidence(rule, llmConfidence float64) float64 {
	return clamp(ruleWeight*rule+llmWeight*clamp(llmConfidence, 0, 1), blendFloor, blendCeiling)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func ruleRationale(rule RuleOutcome) string {
	signals := "none"
	if len(rule.Matched) > 0 {
		signals = strings.Join(rule.Matched, ", ")
	}
	return fmt.Sprintf("Rule-based match (score %.1f vs %.1f); signals: %s.", rule.BestScore, rule.RunnerUp, signals)
}

func profileOutput(profile *models.UserProfile) models.OutputPreference {
	if profile == nil {
		return models.OutputBalanced
	}
	out, _ := models.ParseOutputPreference(string(profile.PreferredOutput))
	return out
}

func (h *Handler) emit(question string, result *models.IntentResult, rule RuleOutcome, guardrail bool) {
	prefix := question
	if r := []rune(prefix); len(r) > h.config.QueryPrefixLen {
		prefix = string(r[:h.config.QueryPrefixLen])
	}
	h.sink.LogIntentEvent(telemetry.IntentEvent{
		Query:                       prefix,
		Intent:                      string(result.Intent),
		Confidence:                  result.Confidence,
		UseLLM:                      result.UseLLM,
		ShouldAskClarifyingQuestion: result.ShouldAskClarifyingQuestion,
		RuleIntent:                  string(rule.Best),
		RuleConfidence:              rule.Confidence,
		GuardrailApplied:            guardrail,
		Scores:                      rule.Scores.asMap(),
	})
}
