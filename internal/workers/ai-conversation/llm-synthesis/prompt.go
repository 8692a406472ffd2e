package llmsynthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"research-agent/internal/models"
)

const noEvidenceMarker = "(no external evidence)"

const forceFinalInstructions = `The user has already been asked for clarification. Do not ask another clarifying question now.
- State your assumptions explicitly at the start of the explanation.
- Give your best-effort answer.
- End the explanation with exactly one follow-up question for the user.`

func buildSystemPrompt(in *Input, maxPerTool int) string {
	var b strings.Builder

	b.WriteString("You are a learning and research assistant. Answer the user's question for this learner.\n\n")

	b.WriteString("User profile:\n")
	if p := in.Profile; p != nil {
		fmt.Fprintf(&b, "- Background: %s\n", p.Background)
		fmt.Fprintf(&b, "- Level: %s\n", p.Level)
		fmt.Fprintf(&b, "- Goals: %s\n", p.Goals)
		fmt.Fprintf(&b, "- Preferred output: %s\n", p.PreferredOutput)
	} else {
		b.WriteString("- (unknown)\n")
	}

	b.WriteString("\nIntent:\n")
	if it := in.Intent; it != nil {
		fmt.Fprintf(&b, "- Intent: %s\n", it.Intent)
		fmt.Fprintf(&b, "- Confidence: %.2f\n", it.Confidence)
		fmt.Fprintf(&b, "- Suggested output: %s\n", it.SuggestedOutput)
	}

	b.WriteString("\nPlan:\n")
	b.WriteString(planJSON(in.Plan))
	b.WriteString("\n\nEvidence:\n")
	b.WriteString(formatEvidence(in.ToolResults, maxPerTool))

	fmt.Fprintf(&b, "\n\nLearning mode: %s\n", in.Spec.Mode)
	if in.Spec.StyleNotes != "" {
		fmt.Fprintf(&b, "Style: %s\n", in.Spec.StyleNotes)
	}
	b.WriteString("Required sections, in this order:\n")
	for _, title := range in.Spec.RequiredSections {
		fmt.Fprintf(&b, "## %s\n", title)
	}

	b.WriteString(`
Prefer the evidence above when it is relevant and never invent URLs.

Return in this exact format:

EXPLANATION:
<a short direct explanation>

BULLETS:
- <key point>
- <key point>

SECTIONS:
## <required section title>
<content>

SOURCES:
- <title> | <url>
`)

	if in.ForceFinal {
		b.WriteString("\n")
		b.WriteString(forceFinalInstructions)
		b.WriteString("\n")
	}
	if ctx := strings.TrimSpace(in.MemoryContext); ctx != "" {
		b.WriteString("\n")
		b.WriteString(ctx)
		b.WriteString("\n")
	}
	return b.String()
}

func planJSON(plan *models.Plan) string {
	if plan == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// formatEvidence renders up to maxPerTool records of each tool result as
// "tool | title | url".
func formatEvidence(results []models.ToolResult, maxPerTool int) string {
	var lines []string
	for _, tr := range results {
		for i, r := range tr.Results {
			if i >= maxPerTool {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s | %s | %s", tr.Tool, r.Title, r.URL))
		}
	}
	if len(lines) == 0 {
		return noEvidenceMarker
	}
	return strings.Join(lines, "\n")
}
