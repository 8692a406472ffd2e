package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeParse            ErrorCode = "PARSE_ERROR"
	ErrCodeLLMCallFailed    ErrorCode = "LLM_CALL_FAILED"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeToolUnavailable  ErrorCode = "TOOL_UNAVAILABLE"
)

// Sentinels for errors.Is matching against a StandardError of the same code.
var (
	ErrParse         = errors.New(string(ErrCodeParse))
	ErrLLMCallFailed = errors.New(string(ErrCodeLLMCallFailed))
	ErrConfigInvalid = errors.New(string(ErrCodeConfigInvalid))
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func (e *StandardError) Is(target error) bool {
	switch target {
	case ErrParse:
		return e.Code == ErrCodeParse
	case ErrLLMCallFailed:
		return e.Code == ErrCodeLLMCallFailed
	case ErrConfigInvalid:
		return e.Code == ErrCodeConfigInvalid
	}
	return false
}

// NewParseError reports LLM output without a recoverable, schema-valid payload.
func NewParseError(component, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeParse,
		Message:   fmt.Sprintf("%s: could not parse structured output", component),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"component": component},
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMCallError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "LLM chat call failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid or missing configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStoreReadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Failed to read from store",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewStoreWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Failed to write to store",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewToolUnavailableError(tool string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolUnavailable,
		Message:   fmt.Sprintf("Tool '%s' is not registered", tool),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

// GetErrorCategory groups codes for log fields and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "PARSE"):
		return "parse"
	case strings.HasPrefix(c, "LLM"):
		return "llm"
	case strings.HasPrefix(c, "STORE"):
		return "storage"
	case strings.HasPrefix(c, "CONFIG"):
		return "config"
	case strings.HasPrefix(c, "TOOL"):
		return "tool"
	default:
		return "unknown"
	}
}

// CodeOf returns the StandardError code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
