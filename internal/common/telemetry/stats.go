package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const LowConfidenceThreshold = 0.65

type Summary struct {
	Total             int            `json:"total"`
	Distribution      map[string]int `json:"intent_distribution"`
	LowConfidenceRate float64        `json:"low_confidence_rate"`
	LLMUseRate        float64        `json:"llm_use_rate"`
}

// ReadEvents loads every event from a JSONL intent log. Blank lines are skipped.
func ReadEvents(path string) ([]IntentEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open intent log: %w", err)
	}
	defer f.Close()

	var events []IntentEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e IntentEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read intent log: %w", err)
	}
	return events, nil
}

func Summarize(events []IntentEvent) Summary {
	s := Summary{Total: len(events), Distribution: make(map[string]int)}
	low, llm := 0, 0
	for _, e := range events {
		s.Distribution[e.Intent]++
		if e.Confidence < LowConfidenceThreshold {
			low++
		}
		if e.UseLLM {
			llm++
		}
	}
	denom := float64(max(s.Total, 1))
	s.LowConfidenceRate = float64(low) / denom
	s.LLMUseRate = float64(llm) / denom
	return s
}
