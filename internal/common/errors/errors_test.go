package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create plan: %w", NewParseError("planner", "no JSON object found"))

	assert.True(t, errors.Is(err, ErrParse))
	assert.True(t, IsParseError(err))
	assert.False(t, errors.Is(err, ErrLLMCallFailed))

	code, ok := CodeOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeParse, code)
	assert.Contains(t, err.Error(), "StandardError[PARSE_ERROR]")
}

func TestLLMCallError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewLLMCallError(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrLLMCallFailed))
	assert.False(t, err.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected string
	}{
		{ErrCodeParse, "parse"},
		{ErrCodeLLMCallFailed, "llm"},
		{ErrCodeStoreReadFailed, "storage"},
		{ErrCodeStoreWriteFailed, "storage"},
		{ErrCodeConfigInvalid, "config"},
		{ErrCodeToolUnavailable, "tool"},
		{ErrorCode("SOMETHING_ELSE"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetErrorCategory(tt.code))
		})
	}
}
