package cli

import (
	"fmt"
	"strings"

	orchestrateturn "research-agent/internal/workers/ai-conversation/orchestrate-turn"
)

func (s *Session) render(action *orchestrateturn.Action) {
	answer := action.Answer
	if answer == nil {
		return
	}

	fmt.Fprintln(s.out)
	headerColor.Fprintln(s.out, "Explanation")
	fmt.Fprintln(s.out, answer.Explanation)

	if len(answer.BulletSummary) > 0 {
		fmt.Fprintln(s.out)
		headerColor.Fprintln(s.out, "Key Takeaways:")
		for i, b := range answer.BulletSummary {
			fmt.Fprintf(s.out, "  %d. %s\n", i+1, b)
		}
	}

	for _, section := range answer.Sections {
		fmt.Fprintln(s.out)
		headerColor.Fprintf(s.out, "## %s\n", section.Title)
		if content := strings.TrimSpace(section.Content); content != "" {
			fmt.Fprintln(s.out, content)
		}
	}

	if len(answer.Sources) > 0 {
		fmt.Fprintln(s.out)
		headerColor.Fprintln(s.out, "Sources:")
		for _, src := range answer.Sources {
			title := src.Title
			if title == "" {
				title = src.URL
			}
			fmt.Fprintf(s.out, "  - %s (%s)\n", title, src.URL)
		}
	}

	dimColor.Fprintf(s.out, "\n[mode: %s]\n\n", answer.Mode)
}
