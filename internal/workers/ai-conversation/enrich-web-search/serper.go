package enrichwebsearch

import (
	"context"
	"net/http"
	"strings"

	agenthttp "research-agent/internal/common/http"
	"research-agent/internal/common/logger"
	"research-agent/internal/models"
)

const serperMaxResults = 10

// SerperTool queries the Serper Google search API. It backs both web_search
// and docs_search.
type SerperTool struct {
	client   *agenthttp.Client
	apiKey   string
	endpoint string
	logger   logger.Logger
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperItem struct {
	Title   string `json:"title"`
	Heading string `json:"heading"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Answer  string `json:"answer"`
}

type serperResponse struct {
	Organic   []serperItem `json:"organic"`
	AnswerBox *serperItem  `json:"answerBox"`
}

func NewSerperTool(client *agenthttp.Client, apiKey, endpoint string, log logger.Logger) *SerperTool {
	if endpoint == "" {
		endpoint = DefaultSerperURL
	}
	return &SerperTool{
		client:   client,
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: endpoint,
		logger:   log.With(map[string]interface{}{"provider": "serper"}),
	}
}

func (t *SerperTool) Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return []models.SearchResult{}, nil
	}
	if t.apiKey == "" {
		return nil, agenthttp.NewConfigError("missing Serper API key (SERPER_API_KEY)", t.endpoint)
	}
	k := clampTopK(topK, 1, serperMaxResults)

	t.logger.Debug("serper search", map[string]interface{}{"query": q, "topK": k})

	var data serperResponse
	err := t.client.DoInto(ctx, agenthttp.Request{
		Method: http.MethodPost,
		URL:    t.endpoint,
		Headers: map[string]string{
			"X-API-KEY":    t.apiKey,
			"Content-Type": "application/json",
		},
		JSONBody: serperRequest{Q: q, Num: k},
	}, &data)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, k)
	for _, item := range data.Organic {
		if len(results) >= k {
			break
		}
		if r, ok := normalizeResult(item.Title, item.Link, item.Snippet); ok {
			results = append(results, r)
		}
	}

	// Answer box is used only when no organic result survives.
	if len(results) == 0 && data.AnswerBox != nil {
		box := data.AnswerBox
		title := box.Title
		if title == "" {
			title = box.Heading
		}
		snippet := box.Answer
		if snippet == "" {
			snippet = box.Snippet
		}
		if r, ok := normalizeResult(title, box.Link, snippet); ok {
			results = append(results, r)
		}
	}
	return results, nil
}
