package enrichwebsearch

import (
	"context"
	"strings"

	"research-agent/internal/models"
)

// Tool is one search provider. Implementations return an empty slice for a
// blank query without making a call, and report failures as *http.Error.
type Tool interface {
	Search(ctx context.Context, query string, topK int) ([]models.SearchResult, error)
}

func clampTopK(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// normalizeResult trims the fields and drops records without a url. The url
// stands in for a missing title.
func normalizeResult(title, url, snippet string) (models.SearchResult, bool) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	snippet = strings.TrimSpace(snippet)
	if url == "" {
		return models.SearchResult{}, false
	}
	if title == "" {
		title = url
	}
	return models.SearchResult{Title: title, URL: url, Snippet: snippet}, true
}
