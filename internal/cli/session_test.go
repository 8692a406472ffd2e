package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"research-agent/internal/common/logger"
	"research-agent/internal/common/store"
	"research-agent/internal/models"
	orchestrateturn "research-agent/internal/workers/ai-conversation/orchestrate-turn"
	updatememory "research-agent/internal/workers/ai-conversation/update-memory"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type runCall struct {
	query      string
	forceFinal bool
}

// scriptedOrchestrator asks for clarification until forced, when clarify is set.
type scriptedOrchestrator struct {
	clarify bool
	err     error
	calls   []runCall
}

func (s *scriptedOrchestrator) Run(_ context.Context, query string, _ *models.UserProfile, forceFinal bool, _ ...orchestrateturn.TurnOption) (*orchestrateturn.Action, error) {
	s.calls = append(s.calls, runCall{query: query, forceFinal: forceFinal})
	if s.err != nil {
		return nil, s.err
	}
	if s.clarify && !forceFinal {
		return &orchestrateturn.Action{Kind: orchestrateturn.ActionNeedClarification, ClarifyingQuestion: "Which part is unclear?"}, nil
	}
	return &orchestrateturn.Action{
		Kind:   orchestrateturn.ActionFinal,
		Intent: &models.IntentResult{Intent: models.IntentCasualCuriosity},
		Plan:   &models.Plan{Goal: "Explain raft consensus"},
		Answer: &models.AgentAnswer{
			Explanation:   "Raft elects a leader.",
			BulletSummary: []string{"Leader election", "Log replication"},
			Sections:      []models.AnswerSection{{Title: "Analogy", Content: "A class electing a monitor."}, {Title: "Next Steps"}},
			Sources:       []models.SourceItem{{Title: "Raft paper", URL: "https://raft.github.io"}, {URL: "https://example.com/x"}},
			Mode:          models.ModeQuickExplain,
		},
	}, nil
}

type harness struct {
	session  *Session
	out      *bytes.Buffer
	profiles *store.ProfileStore
	memory   *updatememory.Handler
}

func newHarness(t *testing.T, orch Orchestrator, input string, withProfile bool) *harness {
	dir := t.TempDir()
	profiles := store.NewProfileStore(filepath.Join(dir, "user_profile.json"))
	if withProfile {
		require.NoError(t, profiles.Save(&models.UserProfile{UserID: "u-1", Level: models.LevelBeginner, PreferredOutput: models.OutputBalanced}))
	}
	log := logger.NewTestLogger(t)
	memory := updatememory.NewHandler(nil, store.NewFileMemoryStore(filepath.Join(dir, "user_memory.json")), log)

	out := &bytes.Buffer{}
	s, err := NewSession(SessionOptions{
		Orchestrator:     orch,
		Profiles:         profiles,
		Memory:           memory,
		In:               strings.NewReader(input),
		Out:              out,
		MaxClarifyRounds: 2,
		Logger:           log,
	})
	require.NoError(t, err)
	s.newID = func() string { return "generated-id" }
	return &harness{session: s, out: out, profiles: profiles, memory: memory}
}

func TestSession_OnboardingNormalizesAnswers(t *testing.T) {
	orch := &scriptedOrchestrator{}
	h := newHarness(t, orch, "Backend developer\n\nEXPERT\n\nquit\n", false)

	require.NoError(t, h.session.Run(context.Background()))

	profile, err := h.profiles.Load()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "generated-id", profile.UserID)
	assert.Equal(t, "Backend developer", profile.Background)
	assert.Equal(t, notProvided, profile.Goals)
	assert.Equal(t, models.LevelIntermediate, profile.Level)
	assert.Equal(t, models.OutputBalanced, profile.PreferredOutput)
	assert.Empty(t, orch.calls)
}

func TestSession_IgnoresEmptyInputAndQuits(t *testing.T) {
	for _, word := range []string{"quit", "EXIT", "  q  "} {
		t.Run(word, func(t *testing.T) {
			orch := &scriptedOrchestrator{}
			h := newHarness(t, orch, "\n   \nwhat is raft?\n"+word+"\nnever asked\n", true)

			require.NoError(t, h.session.Run(context.Background()))

			require.Len(t, orch.calls, 1)
			assert.Equal(t, "what is raft?", orch.calls[0].query)
			assert.Contains(t, h.out.String(), "Goodbye!")
		})
	}
}

func TestSession_EndOfInputExitsCleanly(t *testing.T) {
	orch := &scriptedOrchestrator{}
	h := newHarness(t, orch, "what is raft?", true)

	require.NoError(t, h.session.Run(context.Background()))
	assert.Len(t, orch.calls, 1)
	assert.Contains(t, h.out.String(), "Goodbye!")
}

func TestSession_ClarificationRoundsThenForceFinal(t *testing.T) {
	orch := &scriptedOrchestrator{clarify: true}
	h := newHarness(t, orch, "teach me graphs\ngraph theory\nfor interviews\nquit\n", true)

	require.NoError(t, h.session.Run(context.Background()))

	require.Len(t, orch.calls, 3)
	assert.Equal(t, runCall{query: "teach me graphs", forceFinal: false}, orch.calls[0])
	assert.Equal(t, runCall{query: "teach me graphs\n\nClarification: graph theory", forceFinal: false}, orch.calls[1])
	assert.Equal(t, runCall{query: "teach me graphs\n\nClarification: graph theory\n\nClarification: for interviews", forceFinal: true}, orch.calls[2])
	assert.Equal(t, 2, strings.Count(h.out.String(), "Which part is unclear?"))
}

func TestSession_EOFDuringClarification(t *testing.T) {
	orch := &scriptedOrchestrator{clarify: true}
	h := newHarness(t, orch, "teach me graphs\n", true)

	require.NoError(t, h.session.Run(context.Background()))
	assert.Len(t, orch.calls, 1)
}

func TestSession_RendersAnswerAndUpdatesMemory(t *testing.T) {
	orch := &scriptedOrchestrator{}
	h := newHarness(t, orch, "what is raft?\nq\n", true)

	require.NoError(t, h.session.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Raft elects a leader.")
	assert.Contains(t, out, "  1. Leader election")
	assert.Contains(t, out, "  2. Log replication")
	assert.Contains(t, out, "## Analogy\nA class electing a monitor.")
	assert.Contains(t, out, "## Next Steps")
	assert.Contains(t, out, "  - Raft paper (https://raft.github.io)")
	assert.Contains(t, out, "  - https://example.com/x (https://example.com/x)")
	assert.Contains(t, out, "[mode: quick_explain]")

	mem, err := h.memory.Load(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, mem.History, 1)
	assert.Equal(t, "what is raft?", mem.History[0].Query)
	assert.Equal(t, "Explain raft consensus", mem.LastTopic)
	assert.Equal(t, "casual_curiosity", mem.History[0].Intent)
	assert.Equal(t, "Raft elects a leader.", mem.History[0].Summary)
}

func TestSession_TurnErrorContinues(t *testing.T) {
	orch := &scriptedOrchestrator{err: errors.New("PARSE_ERROR: no JSON object")}
	h := newHarness(t, orch, "first\nsecond\nquit\n", true)

	require.NoError(t, h.session.Run(context.Background()))

	assert.Len(t, orch.calls, 2)
	assert.Equal(t, 2, strings.Count(h.out.String(), "Error: PARSE_ERROR"))
}

func TestSession_CancelledContext(t *testing.T) {
	orch := &scriptedOrchestrator{}
	h := newHarness(t, orch, "what is raft?\n", true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.session.Run(ctx))
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(SessionOptions{})
	assert.Error(t, err)

	_, err = NewSession(SessionOptions{Orchestrator: &scriptedOrchestrator{}, Profiles: store.NewProfileStore("x.json")})
	assert.Error(t, err)
}
