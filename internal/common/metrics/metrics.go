package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_turns_total",
			Help: "Total number of orchestrated turns by resulting action",
		},
		[]string{"action"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_turn_duration_seconds",
			Help:    "Duration of a full turn in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"action"},
	)

	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_intent_classifications_total",
			Help: "Intent classifications by resulting intent and decision path",
		},
		[]string{"intent", "path"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Tool calls by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	HTTPRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_http_retries_total",
			Help: "Retried outbound HTTP attempts by host and reason",
		},
		[]string{"host", "reason"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_llm_calls_total",
			Help: "LLM chat calls by outcome",
		},
		[]string{"status"},
	)
)
