// cmd/research-agent/stats.go
package main

import (
	"fmt"
	"sort"

	"research-agent/internal/common/telemetry"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsPath string

var intentStatsCmd = &cobra.Command{
	Use:   "intent-stats",
	Short: "Summarize the intent classification log",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := statsPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Telemetry.IntentLogPath
		}

		events, err := telemetry.ReadEvents(path)
		if err != nil {
			return err
		}
		s := telemetry.Summarize(events)

		out := cmd.OutOrStdout()
		color.New(color.Bold).Fprintln(out, "=== Intent Telemetry Summary ===")
		fmt.Fprintf(out, "Log file:             %s\n", path)
		fmt.Fprintf(out, "Total events:         %d\n", s.Total)
		fmt.Fprintf(out, "Low confidence rate:  %.2f%% (< %.2f)\n", s.LowConfidenceRate*100, telemetry.LowConfidenceThreshold)
		fmt.Fprintf(out, "LLM use rate:         %.2f%%\n", s.LLMUseRate*100)
		fmt.Fprintln(out, "\nIntent distribution:")

		intents := make([]string, 0, len(s.Distribution))
		for k := range s.Distribution {
			intents = append(intents, k)
		}
		sort.Slice(intents, func(i, j int) bool {
			if s.Distribution[intents[i]] != s.Distribution[intents[j]] {
				return s.Distribution[intents[i]] > s.Distribution[intents[j]]
			}
			return intents[i] < intents[j]
		})
		for _, k := range intents {
			fmt.Fprintf(out, "  - %s: %d\n", k, s.Distribution[k])
		}
		return nil
	},
}

func init() {
	intentStatsCmd.Flags().StringVar(&statsPath, "path", "", "intent log JSONL path (default: telemetry.intent_log_path)")
	rootCmd.AddCommand(intentStatsCmd)
}
