package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"research-agent/internal/common/config"
	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL, apiKey string) *OpenAIClient {
	return NewOpenAIClient(config.LLMConfig{
		BaseURL:     baseURL + "/",
		APIKey:      apiKey,
		Model:       "gpt-4.1-mini",
		Temperature: 0.2,
		MaxTokens:   800,
		Timeout:     5000,
	}, logger.NewTestLogger(t))
}

func TestOpenAIClient_Chat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"id":"c1","model":"gpt-4.1-mini","choices":[{"index":0,"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sk-test")
	reply, err := client.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
	assert.Equal(t, "gpt-4.1-mini", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
}

func TestOpenAIClient_CallOptions(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sk-test")
	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}},
		WithModel("gpt-4o"), WithTemperature(0), WithMaxTokens(100))

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 0.0, got.Temperature)
	assert.Equal(t, 100, got.MaxTokens)
}

func TestOpenAIClient_MissingAPIKey(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "")

	_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "api error payload", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"auth"}}`},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "non json 5xx", status: http.StatusBadGateway, body: `<html>gateway</html>`},
		{name: "non json 200", status: http.StatusOK, body: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, "sk-test")
			_, err := client.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrLLMCallFailed))
		})
	}
}
