package parseuserintent

// Config holds the rule-stage acceptance thresholds.
type Config struct {
	// AcceptConfidence is the minimum calibrated rule confidence for the
	// rule result to be used without an LLM call.
	AcceptConfidence float64
	// MinWords is the shortest query, in words, the rule stage may decide
	// alone. The bound is inclusive: a query of exactly MinWords words qualifies.
	MinWords int
	// MinScoreGap is the smallest winner/runner-up gap that counts as unambiguous.
	MinScoreGap float64
	// QueryPrefixLen bounds the query text copied into telemetry events.
	QueryPrefixLen int
}

func LoadConfig() *Config {
	return &Config{
		AcceptConfidence: 0.70,
		MinWords:         4,
		MinScoreGap:      0.5,
		QueryPrefixLen:   160,
	}
}
