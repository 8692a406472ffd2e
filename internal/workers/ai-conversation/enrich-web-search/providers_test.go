package enrichwebsearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *agenthttp.Client {
	return agenthttp.NewClient(2*time.Second,
		agenthttp.WithLogger(logger.NewTestLogger(t)),
		agenthttp.WithSleeper(func(context.Context, time.Duration) error { return nil }),
		agenthttp.WithJitter(func() float64 { return 0 }),
	)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestSerperTool_Search(t *testing.T) {
	var got serperRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "serper-key", r.Header.Get("X-API-KEY"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, map[string]interface{}{
			"organic": []map[string]interface{}{
				{"title": " ROS 2 Docs ", "link": "https://docs.ros.org", "snippet": "Official docs"},
				{"title": "No link", "snippet": "dropped"},
				{"link": "https://example.com/untitled"},
			},
		})
	}))
	defer server.Close()

	tool := NewSerperTool(newTestClient(t), "serper-key", server.URL, logger.NewTestLogger(t))
	results, err := tool.Search(context.Background(), "  ros2 navigation ", 50)

	require.NoError(t, err)
	assert.Equal(t, "ros2 navigation", got.Q)
	assert.Equal(t, 10, got.Num, "top_k is clamped to 10")
	assert.Equal(t, []models.SearchResult{
		{Title: "ROS 2 Docs", URL: "https://docs.ros.org", Snippet: "Official docs"},
		{Title: "https://example.com/untitled", URL: "https://example.com/untitled"},
	}, results)
}

func TestSerperTool_AnswerBoxFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"organic":   []interface{}{},
			"answerBox": map[string]interface{}{"heading": "Boiling point", "answer": "100 C", "link": "https://example.com/water"},
		})
	}))
	defer server.Close()

	tool := NewSerperTool(newTestClient(t), "k", server.URL, logger.NewTestLogger(t))
	results, err := tool.Search(context.Background(), "boiling point of water", 0)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Boiling point", results[0].Title)
	assert.Equal(t, "100 C", results[0].Snippet)
}

func TestSerperTool_MissingKeyAndBlankQuery(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	tool := NewSerperTool(newTestClient(t), "  ", server.URL, logger.NewTestLogger(t))

	results, err := tool.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = tool.Search(context.Background(), "golang generics", 5)
	var httpErr *agenthttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, agenthttp.KindConfig, httpErr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSerperTool_HTTPErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bad key"}`))
	}))
	defer server.Close()

	tool := NewSerperTool(newTestClient(t), "k", server.URL, logger.NewTestLogger(t))
	_, err := tool.Search(context.Background(), "q", 5)

	var httpErr *agenthttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, agenthttp.KindHTTP, httpErr.Kind)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
}

func TestDuckDuckGoTool_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "rust ownership", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", q.Get("no_html"))
		assert.Equal(t, "0", q.Get("skip_disambig"))
		writeJSON(w, map[string]interface{}{
			"Heading":      "",
			"AbstractText": "Ownership is a set of rules.",
			"AbstractURL":  "https://doc.rust-lang.org/book/ch04-01-what-is-ownership.html",
			"RelatedTopics": []interface{}{
				map[string]interface{}{"Text": "Borrowing", "FirstURL": "https://duckduckgo.com/Borrowing"},
				map[string]interface{}{"Name": "Group", "Topics": []interface{}{
					map[string]interface{}{"Text": "Lifetimes", "FirstURL": "https://duckduckgo.com/Lifetimes"},
					map[string]interface{}{"Text": "No url"},
					map[string]interface{}{"Text": "Slices", "FirstURL": "https://duckduckgo.com/Slices"},
				}},
			},
		})
	}))
	defer server.Close()

	tool := NewDuckDuckGoTool(newTestClient(t), server.URL, logger.NewTestLogger(t))
	results, err := tool.Search(context.Background(), "rust ownership", 3)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "rust ownership", results[0].Title, "query stands in for an empty heading")
	assert.Equal(t, "Borrowing", results[1].Title)
	assert.Equal(t, "Lifetimes", results[2].Title)
}

func TestYouTubeTool_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "25", q.Get("maxResults"))
		assert.Equal(t, "moderate", q.Get("safeSearch"))
		assert.Equal(t, "yt-key", q.Get("key"))
		writeJSON(w, map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"id": map[string]interface{}{"channelId": "c1"}, "snippet": map[string]interface{}{"title": "A channel"}},
				map[string]interface{}{"id": map[string]interface{}{"videoId": "abc123"}, "snippet": map[string]interface{}{"title": "Intro to ROS2", "description": "Beginner tutorial"}},
				map[string]interface{}{"id": map[string]interface{}{"videoId": "def456"}, "snippet": map[string]interface{}{}},
			},
		})
	}))
	defer server.Close()

	tool := NewYouTubeTool(newTestClient(t), "yt-key", server.URL, logger.NewTestLogger(t))
	results, err := tool.Search(context.Background(), "ros2 tutorial", 100)

	require.NoError(t, err)
	assert.Equal(t, []models.SearchResult{
		{Title: "Intro to ROS2", URL: "https://www.youtube.com/watch?v=abc123", Snippet: "Beginner tutorial"},
		{Title: "https://www.youtube.com/watch?v=def456", URL: "https://www.youtube.com/watch?v=def456"},
	}, results)
}

func TestYouTubeTool_MissingKey(t *testing.T) {
	tool := NewYouTubeTool(newTestClient(t), "", "", logger.NewTestLogger(t))
	_, err := tool.Search(context.Background(), "q", 5)

	var httpErr *agenthttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, agenthttp.KindConfig, httpErr.Kind)
	assert.NotContains(t, err.Error(), "key=")
}

func TestClampTopK(t *testing.T) {
	tests := []struct {
		in, lo, hi, want int
	}{
		{0, 1, 10, 1},
		{-3, 1, 10, 1},
		{7, 1, 10, 7},
		{11, 1, 10, 10},
		{40, 1, 25, 25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampTopK(tt.in, tt.lo, tt.hi))
	}
}

func TestYouTubeTool_UnreachableHostKeepsKeyOutOfToolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL + "/youtube/v3/search"
	server.Close()

	tool := NewYouTubeTool(newTestClient(t), "SUPERSECRETKEY", endpoint, logger.NewTestLogger(t))
	h := createTestHandler(t, NoopCache{}, map[models.ToolType]Tool{models.ToolVideoSearch: tool})

	results := h.ExecuteStep(context.Background(), researchStep(
		models.ToolCall{Tool: models.ToolVideoSearch, Query: "ros2 navigation", TopK: 3},
	))

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Error)
	assert.Equal(t, models.ToolErrorNetwork, results[0].Error.Kind)
	assert.NotContains(t, results[0].Error.Message, "SUPERSECRETKEY")
}
