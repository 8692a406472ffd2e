package models

// SearchResult is a normalized provider record. URL is always non-empty.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type ToolErrorKind string

const (
	ToolErrorTimeout    ToolErrorKind = "timeout"
	ToolErrorNetwork    ToolErrorKind = "network"
	ToolErrorHTTP       ToolErrorKind = "http"
	ToolErrorParse      ToolErrorKind = "parse"
	ToolErrorUnexpected ToolErrorKind = "unexpected"
	ToolErrorConfig     ToolErrorKind = "config"
)

type ToolError struct {
	Tool    ToolType      `json:"tool"`
	Query   string        `json:"query"`
	Kind    ToolErrorKind `json:"error_type"`
	Message string        `json:"message"`
}

type ToolResult struct {
	Tool    ToolType       `json:"tool"`
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Error   *ToolError     `json:"error,omitempty"`
}

func (r ToolResult) Failed() bool {
	return r.Error != nil
}
