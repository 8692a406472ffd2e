package parseuserintent

import (
	"regexp"
	"sort"
	"strings"

	"research-agent/internal/models"
)

type keywordRule struct {
	phrase  string
	weight  float64
	pattern *regexp.Regexp
}

// Each phrase counts once per query, matched on word boundaries against the
// lower-cased text.
var keywordTable = map[models.LearningIntent][]keywordRule{
	models.IntentUrgentTroubleshooting: rules(
		"error", 1.0, "errors", 1.0, "exception", 1.0, "traceback", 1.0, "stack trace", 1.0,
		"bug", 0.8, "crash", 1.0, "crashes", 1.0, "fails", 0.8, "failing", 0.8, "failed", 0.8,
		"broken", 0.8, "not working", 1.0, "doesn't work", 1.0, "won't", 0.5, "fix", 0.8,
		"debug", 0.8, "segfault", 1.0, "urgent", 1.0, "asap", 1.0, "production is down", 1.5,
		"help me fix", 1.0, "can't", 0.4, "cannot", 0.4, "timeout", 0.6,
	),
	models.IntentProfessionalResearch: rules(
		"research", 1.0, "paper", 0.8, "papers", 0.8, "literature", 1.0, "state of the art", 1.0,
		"survey", 0.8, "benchmark", 0.8, "benchmarks", 0.8, "compare", 0.6, "comparison", 0.6,
		"trade-offs", 0.8, "tradeoffs", 0.8, "architecture", 0.6, "in production", 0.8,
		"evaluate", 0.6, "analysis", 0.5, "citations", 1.0, "arxiv", 1.0, "rfc", 0.8,
		"for my team", 0.8, "for work", 0.6, "deep dive", 0.8, "thesis", 1.0,
	),
	models.IntentGuidedStudy: rules(
		"learn", 1.0, "study", 1.0, "course", 0.8, "curriculum", 1.0, "roadmap", 1.0,
		"study plan", 1.0, "step by step", 0.6, "teach me", 1.0, "exercises", 0.8,
		"practice", 0.6, "week", 0.5, "weeks", 0.5, "days", 0.5, "master", 0.6,
		"prepare for", 0.8, "exam", 1.0, "interview", 0.6, "syllabus", 1.0, "from scratch", 0.6,
	),
	models.IntentCasualCuriosity: rules(
		"curious", 1.0, "wondering", 1.0, "why do", 0.6, "why is", 0.6, "fun fact", 1.0,
		"how come", 0.8, "interesting", 0.5, "briefly", 0.6, "quick question", 1.0,
		"eli5", 1.0, "in simple terms", 0.8, "just wondering", 0.5,
	),
}

func rules(pairs ...interface{}) []keywordRule {
	out := make([]keywordRule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		phrase := pairs[i].(string)
		out = append(out, keywordRule{
			phrase:  phrase,
			weight:  pairs[i+1].(float64),
			pattern: regexp.MustCompile(`(^|[^a-z0-9_])` + regexp.QuoteMeta(phrase) + `($|[^a-z0-9_])`),
		})
	}
	return out
}

const (
	openerBoost     = 1.0
	stackTraceBoost = 1.5
)

var (
	openerPattern = regexp.MustCompile(`^\s*(what is|what's|explain|define|how does)\b`)
	whatIsPattern = regexp.MustCompile(`^\s*(what is|what's)\s+\S+`)

	stackTraceCues = []*regexp.Regexp{
		regexp.MustCompile(`traceback \(most recent call last\)`),
		regexp.MustCompile(`\btraceback\b`),
		regexp.MustCompile(`\b[a-z]*(error|exception)\b:?`),
		regexp.MustCompile(`\bline \d+\b`),
		regexp.MustCompile(`[\w./\\-]+\.(py|go|js|ts|java|rb|rs|cpp|c|cs):\d+`),
		regexp.MustCompile(`file "[^"]+"`),
		regexp.MustCompile(`\bat [\w$.]+\([\w.]*:\d+\)`),
		regexp.MustCompile(`\bexit (code|status) \d+\b`),
		regexp.MustCompile(`\bpanic:`),
	}
)

// hasStackTraceCue reports path, line number or error-token evidence.
func hasStackTraceCue(q string) bool {
	for _, re := range stackTraceCues {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}

// ScoreRules runs the keyword stage over a query.
func ScoreRules(query string) RuleOutcome {
	q := strings.ToLower(strings.TrimSpace(query))

	scores := RuleScores{}
	for _, intent := range models.AllIntents {
		scores[intent] = 0
	}
	var matched []string

	if openerPattern.MatchString(q) {
		scores[models.IntentCasualCuriosity] += openerBoost
		matched = append(matched, "opener")
	}
	if hasStackTraceCue(q) {
		scores[models.IntentUrgentTroubleshooting] += stackTraceBoost
		matched = append(matched, "stack-trace")
	}

	for intent, table := range keywordTable {
		for _, r := range table {
			if r.pattern.MatchString(q) {
				scores[intent] += r.weight
				matched = append(matched, r.phrase)
			}
		}
	}
	sort.Strings(matched)

	best, bestScore, runnerUp := rank(scores)
	return RuleOutcome{
		Scores:     scores,
		Best:       best,
		BestScore:  bestScore,
		RunnerUp:   runnerUp,
		Confidence: Calibrate(bestScore, runnerUp),
		Matched:    matched,
	}
}

// rank picks the winner, breaking ties by AllIntents priority order.
func rank(scores RuleScores) (models.LearningIntent, float64, float64) {
	best := models.AllIntents[0]
	bestScore := scores[best]
	for _, intent := range models.AllIntents[1:] {
		if scores[intent] > bestScore {
			best, bestScore = intent, scores[intent]
		}
	}
	runnerUp := 0.0
	first := true
	for _, intent := range models.AllIntents {
		if intent == best {
			continue
		}
		if first || scores[intent] > runnerUp {
			runnerUp = scores[intent]
			first = false
		}
	}
	return best, bestScore, runnerUp
}

// Calibrate maps the winning score and its margin to a confidence.
func Calibrate(best, runnerUp float64) float64 {
	margin := best - runnerUp
	switch {
	case best <= 0:
		return 0.55
	case best >= 2.5 && margin >= 1.5:
		return 0.90
	case best >= 2.0 && margin >= 1.0:
		return 0.85
	case best >= 1.5 && margin >= 0.8:
		return 0.78
	case best >= 1.0 && margin >= 0.5:
		return 0.70
	}
	return 0.60
}

func wordCount(query string) int {
	return len(strings.Fields(query))
}

func (s RuleScores) asMap() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[string(k)] = v
	}
	return out
}
