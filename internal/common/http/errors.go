package http

import (
	"fmt"
	"net/url"
)

type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
	KindHTTP       ErrorKind = "http"
	KindParse      ErrorKind = "parse"
	KindUnexpected ErrorKind = "unexpected"
	KindConfig     ErrorKind = "config"
)

const maxResponseText = 500

// Error is the normalized failure of an outbound tool call.
type Error struct {
	Kind         ErrorKind
	Message      string
	StatusCode   int
	URL          string
	ResponseText string
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if safe := e.SafeURL(); safe != "" {
		s += fmt.Sprintf(" (url=%s)", safe)
	}
	return s
}

// SafeURL is the request URL without query string or fragment.
func (e *Error) SafeURL() string {
	return SanitizeURL(e.URL)
}

func NewConfigError(message, rawURL string) *Error {
	return &Error{Kind: KindConfig, Message: message, URL: rawURL}
}

// SanitizeURL drops the query string and fragment, which may carry keys.
func SanitizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	return u.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
