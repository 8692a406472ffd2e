package enrichwebsearch

import (
	"context"
	"errors"

	apperrors "research-agent/internal/common/errors"
	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

// WebToolWithFallback answers from the fallback whenever the primary fails
// with a normalized HTTP error, config errors included.
type WebToolWithFallback struct {
	primary  Tool
	fallback Tool
	logger   logger.Logger
}

func NewWebToolWithFallback(primary, fallback Tool, log logger.Logger) *WebToolWithFallback {
	return &WebToolWithFallback{primary: primary, fallback: fallback, logger: log}
}

func (w *WebToolWithFallback) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	results, err := w.primary.Search(ctx, query, topK)
	if err == nil {
		return results, nil
	}
	var httpErr *agenthttp.Error
	if !errors.As(err, &httpErr) {
		return nil, err
	}
	w.logger.Warn("web_search primary failed, using fallback", map[string]interface{}{
		"kind":  string(httpErr.Kind),
		"error": httpErr.Error(),
	})
	return w.fallback.Search(ctx, query, topK)
}

// Registry maps tool types to providers.
type Registry struct {
	tools map[models.ToolType]Tool
}

// NewRegistry wires web_search to Serper with the DuckDuckGo fallback,
// docs_search to Serper alone and video_search to YouTube.
func NewRegistry(cfg *Config, log logger.Logger) *Registry {
	if cfg == nil {
		cfg = LoadConfig()
	}
	client := agenthttp.NewClient(cfg.Timeout,
		agenthttp.WithMaxRetries(cfg.MaxRetries),
		agenthttp.WithRedactedBodyLogging(cfg.LogRedactedBody),
		agenthttp.WithLogger(log),
	)
	serper := NewSerperTool(client, cfg.SerperAPIKey, cfg.SerperURL, log)
	ddg := NewDuckDuckGoTool(client, cfg.DDGURL, log)

	return &Registry{tools: map[models.ToolType]Tool{
		models.ToolWebSearch:   NewWebToolWithFallback(serper, ddg, log),
		models.ToolDocsSearch:  serper,
		models.ToolVideoSearch: NewYouTubeTool(client, cfg.YouTubeAPIKey, cfg.YouTubeURL, log),
	}}
}

// NewEmptyRegistry is filled with SetTool.
func NewEmptyRegistry() *Registry {
	return &Registry{tools: make(map[models.ToolType]Tool)}
}

func (r *Registry) Get(tool models.ToolType) (Tool, error) {
	t, ok := r.tools[tool]
	if !ok {
		return nil, apperrors.NewToolUnavailableError(string(tool))
	}
	return t, nil
}

func (r *Registry) SetTool(tool models.ToolType, t Tool) {
	r.tools[tool] = t
}
