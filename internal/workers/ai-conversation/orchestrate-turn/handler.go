// internal/workers/ai-conversation/orchestrate-turn/handler.go
package orchestrateturn

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/common/logger"
	"research-agent/internal/common/metrics"
	"research-agent/internal/common/observability"
	"research-agent/internal/models"
	llmsynthesis "research-agent/internal/workers/ai-conversation/llm-synthesis"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TaskType = "orchestrate-turn"

// Handler drives one turn: classify, plan, then either ask for clarification
// or execute research tools and generate the answer.
type Handler struct {
	classifier IntentClassifier
	planner    Planner
	executor   ToolExecutor
	pedagogy   Pedagogy
	generator  Generator
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(
	classifier IntentClassifier,
	planner Planner,
	executor ToolExecutor,
	pedagogy Pedagogy,
	generator Generator,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Handler{
		classifier: classifier,
		planner:    planner,
		executor:   executor,
		pedagogy:   pedagogy,
		generator:  generator,
		obs:        obs,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Run processes one user turn. With forceFinal set, clarification is never
// returned. Classifier, planner and generator failures end the turn.
func (h *Handler) Run(ctx context.Context, query string, profile *models.UserProfile, forceFinal bool, opts ...TurnOption) (*Action, error) {
	var o turnOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	log := h.logger.With(map[string]interface{}{"turnId": uuid.NewString()})
	log.Info("turn started", map[string]interface{}{
		"queryLength": len(query),
		"forceFinal":  forceFinal,
	})

	action, err := h.run(ctx, log, query, profile, forceFinal, o)

	label := "error"
	if err == nil {
		label = string(action.Kind)
	}
	metrics.TurnsTotal.WithLabelValues(label).Inc()
	metrics.TurnDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	h.obs.RecordTurn(ctx, label)
	h.obs.RecordTurnDuration(ctx, time.Since(start), label)

	if err != nil {
		fields := map[string]interface{}{"error": err.Error(), "errorCategory": "unknown"}
		if code, ok := apperrors.CodeOf(err); ok {
			fields["errorCode"] = string(code)
			fields["errorCategory"] = apperrors.GetErrorCategory(code)
		}
		log.Error("turn failed", fields)
		return nil, err
	}
	log.Info("turn finished", map[string]interface{}{
		"action":     label,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return action, nil
}

func (h *Handler) run(ctx context.Context, log logger.Logger, query string, profile *models.UserProfile, forceFinal bool, o turnOptions) (*Action, error) {
	intent, err := h.classify(ctx, query, profile)
	if err != nil {
		return nil, err
	}

	plan, err := h.plan(ctx, query, profile, intent)
	if err != nil {
		return nil, err
	}

	if !forceFinal {
		if q, ok := clarificationFor(intent, plan); ok {
			log.Info("clarification requested", map[string]interface{}{"intent": string(intent.Intent)})
			return &Action{Kind: ActionNeedClarification, ClarifyingQuestion: q}, nil
		}
	}

	toolResults := h.executeTools(ctx, plan)

	mode := h.pedagogy.ChooseMode(intent, profile)
	spec := h.pedagogy.BuildSpec(mode, profile)

	answer, err := h.generate(ctx, &llmsynthesis.Input{
		Query:         query,
		Profile:       profile,
		Intent:        intent,
		Plan:          plan,
		ToolResults:   toolResults,
		Spec:          spec,
		ForceFinal:    forceFinal,
		MemoryContext: o.memoryContext,
	})
	if err != nil {
		return nil, err
	}

	return &Action{
		Kind:        ActionFinal,
		Answer:      answer,
		Intent:      intent,
		Plan:        plan,
		ToolResults: toolResults,
	}, nil
}

// clarificationFor prefers the classifier's question, then the first clarify
// step carrying a non-blank question.
func clarificationFor(intent *models.IntentResult, plan *models.Plan) (string, bool) {
	if intent.ShouldAskClarifyingQuestion {
		if q := strings.TrimSpace(intent.ClarifyingQuestion); q != "" {
			return q, true
		}
	}
	for _, step := range plan.Steps {
		if step.Type != models.StepClarify {
			continue
		}
		if q := strings.TrimSpace(step.Outputs.ClarifyingQuestion); q != "" {
			return q, true
		}
	}
	return "", false
}

func (h *Handler) classify(ctx context.Context, query string, profile *models.UserProfile) (*models.IntentResult, error) {
	ctx, span := h.obs.StartSpan(ctx, "classify")
	defer span.End()

	intent, err := h.classifier.Classify(ctx, query, profile)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("classify: %w", err)
	}
	span.SetAttributes(
		attribute.String("intent", string(intent.Intent)),
		attribute.Float64("confidence", intent.Confidence),
		attribute.Bool("use_llm", intent.UseLLM),
	)
	return intent, nil
}

func (h *Handler) plan(ctx context.Context, query string, profile *models.UserProfile, intent *models.IntentResult) (*models.Plan, error) {
	ctx, span := h.obs.StartSpan(ctx, "plan")
	defer span.End()

	plan, err := h.planner.CreatePlan(ctx, query, profile, intent)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("planning: %w", err)
	}
	span.SetAttributes(attribute.Int("steps", len(plan.Steps)))
	return plan, nil
}

// executeTools runs every research step in plan order and concatenates
// their results.
func (h *Handler) executeTools(ctx context.Context, plan *models.Plan) []models.ToolResult {
	ctx, span := h.obs.StartSpan(ctx, "execute_tools")
	defer span.End()

	var results []models.ToolResult
	failures := 0
	for _, step := range plan.ResearchSteps() {
		for _, r := range h.executor.ExecuteStep(ctx, step) {
			if r.Failed() {
				failures++
			}
			results = append(results, r)
		}
	}
	span.SetAttributes(
		attribute.Int("tool_results", len(results)),
		attribute.Int("tool_failures", failures),
	)
	return results
}

func (h *Handler) generate(ctx context.Context, in *llmsynthesis.Input) (*models.AgentAnswer, error) {
	ctx, span := h.obs.StartSpan(ctx, "generate", attribute.String("mode", string(in.Spec.Mode)))
	defer span.End()

	answer, err := h.generator.Generate(ctx, in)
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("generate: %w", err)
	}
	return answer, nil
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
