package enrichwebsearch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const (
	youtubeMaxResults = 25
	youtubeWatchURL   = "https://www.youtube.com/watch?v="
)

// YouTubeTool calls the YouTube Data API v3 search.list endpoint for videos.
type YouTubeTool struct {
	client   *agenthttp.Client
	apiKey   string
	endpoint string
	logger   logger.Logger
}

type youtubeItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"snippet"`
}

type youtubeResponse struct {
	Items []youtubeItem `json:"items"`
}

func NewYouTubeTool(client *agenthttp.Client, apiKey, endpoint string, log logger.Logger) *YouTubeTool {
	if endpoint == "" {
		endpoint = DefaultYouTubeURL
	}
	return &YouTubeTool{
		client:   client,
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: endpoint,
		logger:   log.With(map[string]interface{}{"provider": "youtube"}),
	}
}

func (t *YouTubeTool) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.SearchResult{}, nil
	}
	if t.apiKey == "" {
		return nil, agenthttp.NewConfigError("missing YouTube API key (YOUTUBE_API_KEY)", t.endpoint)
	}
	k := clampTopK(topK, 1, youtubeMaxResults)

	t.logger.Debug("youtube search", map[string]interface{}{"query": q, "topK": k})

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", q)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(k))
	params.Set("safeSearch", "moderate")
	params.Set("key", t.apiKey)

	var data youtubeResponse
	err := t.client.DoInto(ctx, agenthttp.Request{
		Method:  http.MethodGet,
		URL:     t.endpoint,
		Params:  params,
		Headers: map[string]string{"Accept": "application/json"},
	}, &data)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, k)
	for _, item := range data.Items {
		if len(results) >= k {
			break
		}
		// channels and playlists have no videoId
		id := strings.TrimSpace(item.ID.VideoID)
		if id == "" {
			continue
		}
		if r, ok := normalizeResult(item.Snippet.Title, youtubeWatchURL+id, item.Snippet.Description); ok {
			results = append(results, r)
		}
	}
	return results, nil
}
