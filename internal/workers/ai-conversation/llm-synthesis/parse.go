package llmsynthesis

import (
	"regexp"
	"strings"

	"research-agent/internal/models"
)

const unformattedBullet = "Summary not clearly formatted; see the explanation above."

var anchors = []string{"explanation:", "bullets:", "sections:", "sources:"}

// Level-two headings only; ### lines stay inside the enclosing section.
var sectionHeader = regexp.MustCompile(`(?m)^[ \t]*##[ \t]*([^#\s].*?)[ \t]*$`)

type parsedReply struct {
	explanation string
	bullets     []string
	sections    map[string]string
}

// splitAnchors finds the anchors in order, each search starting after the
// previous hit. Missing anchors are skipped. The map holds the text between
// an anchor and the next one found.
func splitAnchors(raw string) (map[string]string, int) {
	lower := strings.ToLower(raw)

	type hit struct {
		name       string
		start, end int
	}
	var hits []hit
	pos := 0
	for _, a := range anchors {
		idx := strings.Index(lower[pos:], a)
		if idx < 0 {
			continue
		}
		start := pos + idx
		hits = append(hits, hit{name: a, start: start, end: start + len(a)})
		pos = start + len(a)
	}

	slices := make(map[string]string, len(hits))
	for i, h := range hits {
		stop := len(raw)
		if i+1 < len(hits) {
			stop = hits[i+1].start
		}
		slices[h.name] = strings.TrimSpace(raw[h.end:stop])
	}
	first := len(raw)
	if len(hits) > 0 {
		first = hits[0].start
	}
	return slices, first
}

func parseReply(raw string) parsedReply {
	slices, first := splitAnchors(raw)
	if len(slices) == 0 {
		return parsedReply{explanation: strings.TrimSpace(raw)}
	}

	out := parsedReply{sections: map[string]string{}}
	if exp, ok := slices["explanation:"]; ok {
		out.explanation = exp
	} else {
		out.explanation = strings.TrimSpace(raw[:first])
	}
	out.bullets = parseBullets(slices["bullets:"])
	out.sections = parseSections(slices["sections:"])
	return out
}

func parseBullets(block string) []string {
	var bullets []string
	for _, line := range strings.Split(block, "\n") {
		s := strings.TrimSpace(line)
		if !strings.HasPrefix(s, "-") {
			continue
		}
		if item := strings.TrimSpace(strings.TrimLeft(s, "-")); item != "" {
			bullets = append(bullets, item)
		}
	}
	return bullets
}

// parseSections keys each "## Title" block by its lower-cased title. The
// first block wins when a title repeats.
func parseSections(block string) map[string]string {
	out := map[string]string{}
	locs := sectionHeader.FindAllStringSubmatchIndex(block, -1)
	for i, loc := range locs {
		title := strings.ToLower(strings.TrimSpace(block[loc[2]:loc[3]]))
		end := len(block)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, seen := out[title]; !seen {
			out[title] = strings.TrimSpace(block[loc[1]:end])
		}
	}
	return out
}

// orderSections emits exactly the required titles in required order.
func orderSections(required []string, parsed map[string]string) []models.AnswerSection {
	sections := make([]models.AnswerSection, 0, len(required))
	for _, title := range required {
		sections = append(sections, models.AnswerSection{
			Title:   title,
			Content: parsed[strings.ToLower(strings.TrimSpace(title))],
		})
	}
	return sections
}

// collectSources takes the first occurrence of each url across the tool
// results, in order, up to limit.
func collectSources(results []models.ToolResult, limit int) []models.SourceItem {
	seen := make(map[string]bool)
	sources := make([]models.SourceItem, 0, limit)
	for _, tr := range results {
		for _, r := range tr.Results {
			if len(sources) >= limit {
				return sources
			}
			url := strings.TrimSpace(r.URL)
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			sources = append(sources, models.SourceItem{Title: r.Title, URL: url})
		}
	}
	return sources
}
