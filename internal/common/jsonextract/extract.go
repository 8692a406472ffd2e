// Package jsonextract recovers a single JSON value from free-form LLM text.
package jsonextract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Extract returns the first JSON value found in text, or nil.
//
// A fenced code block wins outright: when one is present its body is the only
// candidate, and a body that fails to parse yields nil without scanning the
// surrounding text. Otherwise every '{' or '[' is tried left to right, each
// paired with the close that balances its own bracket family.
func Extract(text string) interface{} {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		v, ok := parse(strings.TrimSpace(m[1]))
		if !ok {
			return nil
		}
		return v
	}

	for i := 0; i < len(text); i++ {
		open := text[i]
		if open != '{' && open != '[' {
			continue
		}
		end := matchingClose(text, i)
		if end < 0 {
			continue
		}
		if v, ok := parse(strings.TrimSpace(text[i:end])); ok {
			return v
		}
	}
	return nil
}

// ExtractObject is Extract restricted to a top-level JSON object.
func ExtractObject(text string) (map[string]interface{}, bool) {
	obj, ok := Extract(text).(map[string]interface{})
	return obj, ok
}

// matchingClose returns the index just past the bracket closing text[start].
func matchingClose(text string, start int) int {
	open := text[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}
	depth := 0
	for j := start; j < len(text); j++ {
		switch text[j] {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return -1
}

func parse(s string) (interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
