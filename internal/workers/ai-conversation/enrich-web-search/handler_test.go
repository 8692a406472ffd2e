package enrichwebsearch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	apperrors "research-agent/internal/common/errors"
	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	results []models.SearchResult
	err     error
	panics  bool
	calls   []string
}

func (f *fakeTool) Search(_ context.Context, query string, _ int) ([]models.SearchResult, error) {
	f.calls = append(f.calls, query)
	if f.panics {
		panic("provider exploded")
	}
	return f.results, f.err
}

func createTestHandler(t *testing.T, cache Cache, tools map[models.ToolType]Tool) *Handler {
	registry := NewEmptyRegistry()
	for tt, tool := range tools {
		registry.SetTool(tt, tool)
	}
	return NewHandler(registry, cache, logger.NewTestLogger(t))
}

func researchStep(calls ...models.ToolCall) models.PlanStep {
	return models.PlanStep{StepID: "s2", Type: models.StepResearch, ToolCalls: calls}
}

func TestExecuteStep_PreservesOrderAndCapturesFailures(t *testing.T) {
	web := &fakeTool{results: []models.SearchResult{
		{Title: "Go tour", URL: "https://go.dev/tour"},
		{Title: "no url"},
	}}
	video := &fakeTool{err: agenthttp.NewConfigError("missing YouTube API key (YOUTUBE_API_KEY)", DefaultYouTubeURL)}
	h := createTestHandler(t, NoopCache{}, map[models.ToolType]Tool{
		models.ToolWebSearch:   web,
		models.ToolVideoSearch: video,
	})

	results := h.ExecuteStep(context.Background(), researchStep(
		models.ToolCall{Tool: models.ToolVideoSearch, Query: "go tutorial", TopK: 3},
		models.ToolCall{Tool: models.ToolWebSearch, Query: "go tour", TopK: 5},
		models.ToolCall{Tool: models.ToolDocsSearch, Query: "site:go.dev generics", TopK: 5},
	))

	require.Len(t, results, 3)

	assert.Equal(t, models.ToolVideoSearch, results[0].Tool)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, models.ToolErrorConfig, results[0].Error.Kind)
	assert.Equal(t, "go tutorial", results[0].Error.Query)
	assert.Empty(t, results[0].Results)

	assert.Equal(t, models.ToolWebSearch, results[1].Tool)
	assert.Nil(t, results[1].Error)
	assert.Equal(t, []models.SearchResult{{Title: "Go tour", URL: "https://go.dev/tour"}}, results[1].Results)

	require.NotNil(t, results[2].Error, "unregistered tool is captured")
	assert.Equal(t, models.ToolErrorUnexpected, results[2].Error.Kind)
}

func TestExecuteStep_NoToolCalls(t *testing.T) {
	h := createTestHandler(t, nil, nil)
	assert.Empty(t, h.ExecuteStep(context.Background(), models.PlanStep{Type: models.StepExplain}))
}

func TestExecuteStep_RecoversProviderPanic(t *testing.T) {
	h := createTestHandler(t, nil, map[models.ToolType]Tool{models.ToolWebSearch: &fakeTool{panics: true}})

	results := h.ExecuteStep(context.Background(), researchStep(models.ToolCall{Tool: models.ToolWebSearch, Query: "q", TopK: 5}))

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, models.ToolErrorUnexpected, results[0].Error.Kind)
	assert.Equal(t, "q", results[0].Query)
}

func TestExecuteStep_CachesSuccessOnly(t *testing.T) {
	web := &fakeTool{results: []models.SearchResult{{Title: "A", URL: "https://a.example"}}}
	video := &fakeTool{err: &agenthttp.Error{Kind: agenthttp.KindTimeout, Message: "deadline exceeded"}}
	h := createTestHandler(t, NewMemoryCache(time.Minute), map[models.ToolType]Tool{
		models.ToolWebSearch:   web,
		models.ToolVideoSearch: video,
	})
	step := researchStep(
		models.ToolCall{Tool: models.ToolWebSearch, Query: "Quantum Computing", TopK: 5},
		models.ToolCall{Tool: models.ToolVideoSearch, Query: "quantum", TopK: 5},
	)

	first := h.ExecuteStep(context.Background(), step)
	second := h.ExecuteStep(context.Background(), researchStep(
		models.ToolCall{Tool: models.ToolWebSearch, Query: "  quantum computing ", TopK: 5},
		models.ToolCall{Tool: models.ToolVideoSearch, Query: "quantum", TopK: 5},
	))

	assert.Len(t, web.calls, 1, "second web call is served from cache")
	assert.Len(t, video.calls, 2, "errors are not cached")
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Results, second[0].Results)
	assert.Equal(t, "  quantum computing ", second[0].Query)
	assert.Equal(t, models.ToolErrorTimeout, second[1].Error.Kind)
}

func TestExecuteStep_RedisCache(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	web := &fakeTool{results: []models.SearchResult{{Title: "A", URL: "https://a.example", Snippet: "s"}}}
	h := createTestHandler(t, NewRedisCache(redisClient, 10*time.Minute), map[models.ToolType]Tool{models.ToolWebSearch: web})

	key := redisCachePrefix + CacheKey(models.ToolWebSearch, 4, "kafka")
	data, _ := json.Marshal(web.results)
	redisMock.ExpectGet(key).RedisNil()
	redisMock.ExpectSet(key, data, 10*time.Minute).SetVal("OK")
	redisMock.ExpectGet(key).SetVal(string(data))

	call := models.ToolCall{Tool: models.ToolWebSearch, Query: "kafka", TopK: 4}
	first := h.ExecuteStep(context.Background(), researchStep(call))
	second := h.ExecuteStep(context.Background(), researchStep(call))

	assert.Len(t, web.calls, 1)
	assert.Equal(t, first[0].Results, second[0].Results)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecuteStep_CacheFailureIgnored(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	web := &fakeTool{results: []models.SearchResult{{Title: "A", URL: "https://a.example"}}}
	h := createTestHandler(t, NewRedisCache(redisClient, time.Minute), map[models.ToolType]Tool{models.ToolWebSearch: web})

	key := redisCachePrefix + CacheKey(models.ToolWebSearch, 5, "kafka")
	redisMock.ExpectGet(key).SetErr(errors.New("connection refused"))
	data, _ := json.Marshal(web.results)
	redisMock.ExpectSet(key, data, time.Minute).SetErr(errors.New("connection refused"))

	results := h.ExecuteStep(context.Background(), researchStep(models.ToolCall{Tool: models.ToolWebSearch, Query: "kafka", TopK: 5}))

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Error)
	assert.Len(t, results[0].Results, 1)
}

func TestWebToolWithFallback(t *testing.T) {
	fallbackResults := []models.SearchResult{{Title: "DDG", URL: "https://duckduckgo.com/x"}}

	tests := []struct {
		name         string
		primaryErr   error
		wantFallback bool
		wantErr      bool
	}{
		{name: "primary succeeds", wantFallback: false},
		{name: "config error falls back", primaryErr: agenthttp.NewConfigError("missing key", DefaultSerperURL), wantFallback: true},
		{name: "http error falls back", primaryErr: &agenthttp.Error{Kind: agenthttp.KindHTTP, StatusCode: 503}, wantFallback: true},
		{name: "other error propagates", primaryErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeTool{results: []models.SearchResult{{Title: "Serper", URL: "https://serper.example"}}, err: tt.primaryErr}
			fallback := &fakeTool{results: fallbackResults}
			tool := NewWebToolWithFallback(primary, fallback, logger.NewTestLogger(t))

			results, err := tool.Search(context.Background(), "q", 5)

			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, fallback.calls)
				return
			}
			require.NoError(t, err)
			if tt.wantFallback {
				assert.Equal(t, fallbackResults, results)
				assert.Len(t, fallback.calls, 1)
			} else {
				assert.Equal(t, "Serper", results[0].Title)
				assert.Empty(t, fallback.calls)
			}
		})
	}
}

func TestNewRegistry_WiresProviders(t *testing.T) {
	registry := NewRegistry(LoadConfig(), logger.NewTestLogger(t))

	web, err := registry.Get(models.ToolWebSearch)
	require.NoError(t, err)
	assert.IsType(t, &WebToolWithFallback{}, web)

	docs, err := registry.Get(models.ToolDocsSearch)
	require.NoError(t, err)
	assert.IsType(t, &SerperTool{}, docs)

	video, err := registry.Get(models.ToolVideoSearch)
	require.NoError(t, err)
	assert.IsType(t, &YouTubeTool{}, video)

	_, err = NewEmptyRegistry().Get(models.ToolVideoSearch)
	code, ok := apperrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeToolUnavailable, code)
}

func TestNewCache(t *testing.T) {
	cfg := LoadConfig()

	c, err := NewCache(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	cfg.CacheBackend = CacheBackendNone
	c, err = NewCache(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, NoopCache{}, c)

	cfg.CacheBackend = CacheBackendRedis
	_, err = NewCache(cfg, nil)
	assert.Error(t, err)

	cfg.CacheBackend = "disk"
	_, err = NewCache(cfg, nil)
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "web_search|5|rust async", CacheKey(models.ToolWebSearch, 5, "  Rust Async "))
}
