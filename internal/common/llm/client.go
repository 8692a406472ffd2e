package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"research-agent/internal/common/config"
	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/common/logger"
	"research-agent/internal/common/metrics"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Client      *http.Client
	logger      logger.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, log logger.Logger) *OpenAIClient {
	timeout := config.GetDuration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Client:      &http.Client{Timeout: timeout},
		logger:      log.With(map[string]interface{}{"component": "llm"}),
	}
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		metrics.LLMCalls.WithLabelValues("config_error").Inc()
		return "", apperrors.NewConfigInvalidError("OPENAI_API_KEY is not set")
	}

	o := callOptions{model: c.Model, maxTokens: c.MaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	temperature := c.Temperature
	if o.temperature != nil {
		temperature = *o.temperature
	}

	c.logger.Debug("Chat request", map[string]interface{}{
		"model":    o.model,
		"messages": len(messages),
	})

	resp, err := c.sendRequest(ctx, chatRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues("error").Inc()
		return "", apperrors.NewLLMCallError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMCalls.WithLabelValues("error").Inc()
		return "", apperrors.NewLLMCallError(fmt.Errorf("no response from LLM"))
	}

	metrics.LLMCalls.WithLabelValues("success").Inc()
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) sendRequest(ctx context.Context, reqBody chatRequest) (*chatResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("LLM API returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("LLM API returned status %d", resp.StatusCode)
	}

	return &chatResp, nil
}
