package enrichwebsearch

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const ddgMaxResults = 10

// DuckDuckGoTool reads the keyless instant-answer API. It only serves as the
// web_search fallback.
type DuckDuckGoTool struct {
	client   *agenthttp.Client
	endpoint string
	logger   logger.Logger
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

func NewDuckDuckGoTool(client *agenthttp.Client, endpoint string, log logger.Logger) *DuckDuckGoTool {
	if endpoint == "" {
		endpoint = DefaultDDGURL
	}
	return &DuckDuckGoTool{
		client:   client,
		endpoint: endpoint,
		logger:   log.With(map[string]interface{}{"provider": "duckduckgo"}),
	}
}

func (t *DuckDuckGoTool) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.SearchResult{}, nil
	}
	k := clampTopK(topK, 1, ddgMaxResults)

	t.logger.Debug("duckduckgo search", map[string]interface{}{"query": q, "topK": k})

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "0")

	var data ddgResponse
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
	title := data.Heading
	if strings.TrimSpace(title) == "" {
		title = q
	}
	if r, ok := normalizeResult(title, data.AbstractURL, data.AbstractText); ok {
		results = append(results, r)
	}
	results = collectTopics(data.RelatedTopics, results, k)

	t.logger.Debug("duckduckgo results", map[string]interface{}{"resultCount": len(results)})
	return results, nil
}

// collectTopics walks RelatedTopics depth first. Group entries carry their
// children under Topics and have no url of their own.
func collectTopics(topics []ddgTopic, out []models.SearchResult, limit int) []models.SearchResult {
	for _, topic := range topics {
		if len(out) >= limit {
			return out
		}
		if len(topic.Topics) > 0 {
			out = collectTopics(topic.Topics, out, limit)
			continue
		}
		if r, ok := normalizeResult(topic.Text, topic.FirstURL, topic.Text); ok {
			out = append(out, r)
		}
	}
	return out
}
