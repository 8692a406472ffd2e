package telemetry

import (
	"encoding/json"
	"io"
	"time"

	"research-agent/internal/common/config"
	"research-agent/internal/common/logger"

	"gopkg.in/natefinch/lumberjack.v2"
)

// IntentEvent is one classification record in the intent log.
type IntentEvent struct {
	Timestamp                   string             `json:"ts"`
	Query                       string             `json:"query"`
	Intent                      string             `json:"intent"`
	Confidence                  float64            `json:"confidence"`
	UseLLM                      bool               `json:"use_llm"`
	ShouldAskClarifyingQuestion bool               `json:"should_ask_clarifying_question"`
	RuleIntent                  string             `json:"rule_intent"`
	RuleConfidence              float64            `json:"rule_confidence"`
	GuardrailApplied            bool               `json:"guardrail_applied,omitempty"`
	Scores                      map[string]float64 `json:"scores"`
}

// Sink receives intent events. Implementations must not fail the caller.
type Sink interface {
	LogIntentEvent(event IntentEvent)
}

// IntentLog appends events as JSON lines to a size-rotated file.
type IntentLog struct {
	w      io.WriteCloser
	logger logger.Logger
	now    func() time.Time
}

func NewIntentLog(cfg config.TelemetryConfig, log logger.Logger) *IntentLog {
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	return &IntentLog{
		w: &lumberjack.Logger{
			Filename:   cfg.IntentLogPath,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		},
		logger: log.With(map[string]interface{}{"component": "telemetry"}),
		now:    time.Now,
	}
}

func (l *IntentLog) LogIntentEvent(event IntentEvent) {
	event.Timestamp = l.now().UTC().Format(time.RFC3339Nano)

	line, err := json.Marshal(event)
	if err != nil {
		l.logger.Error("Failed to encode intent event", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		l.logger.Error("Failed to log intent event", map[string]interface{}{"error": err.Error()})
	}
}

func (l *IntentLog) Close() error {
	return l.w.Close()
}

type NopSink struct{}

func (NopSink) LogIntentEvent(IntentEvent) {}

// MemorySink keeps events in memory.
type MemorySink struct {
	Events []IntentEvent
}

func (m *MemorySink) LogIntentEvent(event IntentEvent) {
	m.Events = append(m.Events, event)
}
