package enrichwebsearch

import (
	"context"
	"errors"
	"fmt"

	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/common/metrics"
	"research-agent/internal/models"
)

const TaskType = "enrich-web-search"

// Handler executes the tool calls of a research step.
type Handler struct {
	registry *Registry
	cache    Cache
	logger   logger.Logger
}

func NewHandler(registry *Registry, cache Cache, log logger.Logger) *Handler {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Handler{
		registry: registry,
		cache:    cache,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// ExecuteStep returns one ToolResult per tool call, in call order. Provider
// failures are reported inside the result and never returned.
func (h *Handler) ExecuteStep(ctx context.Context, step models.PlanStep) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(step.ToolCalls))
	for _, call := range step.ToolCalls {
		results = append(results, h.executeCall(ctx, call))
	}
	return results
}

func (h *Handler) executeCall(ctx context.Context, call models.ToolCall) (result models.ToolResult) {
	result = models.ToolResult{Tool: call.Tool, Query: call.Query, Results: []models.SearchResult{}}

	defer func() {
		if r := recover(); r != nil {
			result = h.failed(call, &agenthttp.Error{Kind: agenthttp.KindUnexpected, Message: fmt.Sprintf("provider panic: %v", r)})
		}
	}()

	h.logger.Info("tool call", map[string]interface{}{
		"tool":  string(call.Tool),
		"query": call.Query,
		"topK":  call.TopK,
	})

	key := CacheKey(call.Tool, call.TopK, call.Query)
	if cached, ok, err := h.cache.Get(ctx, key); err != nil {
		h.logger.Warn("tool cache read failed", map[string]interface{}{"error": err.Error()})
	} else if ok {
		metrics.ToolCalls.WithLabelValues(string(call.Tool), "cache_hit").Inc()
		result.Results = normalizeResults(cached)
		return result
	}

	tool, err := h.registry.Get(call.Tool)
	if err != nil {
		return h.failed(call, err)
	}

	found, err := tool.Search(ctx, call.Query, call.TopK)
	if err != nil {
		return h.failed(call, err)
	}

	result.Results = normalizeResults(found)
	metrics.ToolCalls.WithLabelValues(string(call.Tool), "success").Inc()
	h.logger.Debug("tool call succeeded", map[string]interface{}{
		"tool":        string(call.Tool),
		"resultCount": len(result.Results),
	})

	if err := h.cache.Set(ctx, key, result.Results); err != nil {
		h.logger.Warn("tool cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return result
}

func (h *Handler) failed(call models.ToolCall, err error) models.ToolResult {
	kind, message := classifyError(err)
	metrics.ToolCalls.WithLabelValues(string(call.Tool), "error").Inc()
	h.logger.Warn("tool call failed", map[string]interface{}{
		"tool":  string(call.Tool),
		"kind":  string(kind),
		"error": message,
	})
	return models.ToolResult{
		Tool:    call.Tool,
		Query:   call.Query,
		Results: []models.SearchResult{},
		Error: &models.ToolError{
			Tool:    call.Tool,
			Query:   call.Query,
			Kind:    kind,
			Message: message,
		},
	}
}

func classifyError(err error) (models.ToolErrorKind, string) {
	var httpErr *agenthttp.Error
	if errors.As(err, &httpErr) {
		return models.ToolErrorKind(httpErr.Kind), httpErr.Error()
	}
	return models.ToolErrorUnexpected, err.Error()
}

func normalizeResults(in []models.SearchResult) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(in))
	for _, r := range in {
		if n, ok := normalizeResult(r.Title, r.URL, r.Snippet); ok {
			out = append(out, n)
		}
	}
	return out
}
