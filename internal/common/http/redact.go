package http

import (
	"encoding/json"
	"sort"
	"strings"
)

const redactedValue = "***REDACTED***"

var sensitiveKeySubstrings = []string{
	"authorization", "api_key", "apikey", "x-api-key", "token",
	"access_token", "refresh_token", "client_secret", "password", "secret",
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Redact returns a copy of a decoded JSON value with sensitive keys masked.
func Redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = redactedValue
				continue
			}
			out[k] = Redact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = Redact(val)
		}
		return out
	default:
		return v
	}
}

// bodyPreview renders a redacted, truncated JSON preview of a request body.
func bodyPreview(body interface{}, limit int) string {
	raw, err := json.Marshal(body)
	if err != nil {
		return "<unserializable json body>"
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "<unserializable json body>"
	}
	safe, err := json.Marshal(Redact(generic))
	if err != nil {
		return "<unserializable json body>"
	}
	return truncate(string(safe), limit)
}

func sortedKeys(m map[string]interface{}, limit int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func bodyKeys(body interface{}) []string {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return sortedKeys(m, 25)
}
