package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"research-agent/internal/common/logger"
	"research-agent/internal/models"
	orchestrateturn "research-agent/internal/workers/ai-conversation/orchestrate-turn"
	updatememory "research-agent/internal/workers/ai-conversation/update-memory"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const defaultMaxClarifyRounds = 2

type Orchestrator interface {
	Run(ctx context.Context, query string, profile *models.UserProfile, forceFinal bool, opts ...orchestrateturn.TurnOption) (*orchestrateturn.Action, error)
}

type ProfileStore interface {
	Load() (*models.UserProfile, error)
	Save(profile *models.UserProfile) error
}

type MemoryManager interface {
	Load(ctx context.Context, userID string) (*models.UserMemory, error)
	Save(ctx context.Context, mem *models.UserMemory) error
	UpdateAfterAnswer(mem *models.UserMemory, u updatememory.Update) *models.UserMemory
	BuildPromptContext(mem *models.UserMemory) string
	TopicFromGoal(goal string) string
}

type SessionOptions struct {
	Orchestrator     Orchestrator
	Profiles         ProfileStore
	Memory           MemoryManager
	In               io.Reader
	Out              io.Writer
	MaxClarifyRounds int
	Logger           logger.Logger
}

// Session is the interactive question loop.
type Session struct {
	orchestrator     Orchestrator
	profiles         ProfileStore
	memory           MemoryManager
	lines            *bufio.Scanner
	out              io.Writer
	maxClarifyRounds int
	logger           logger.Logger
	newID            func() string
}

var (
	titleColor  = color.New(color.FgGreen, color.Bold)
	promptColor = color.New(color.FgCyan, color.Bold)
	askColor    = color.New(color.FgYellow, color.Bold)
	errorColor  = color.New(color.FgRed)
	headerColor = color.New(color.Bold)
	dimColor    = color.New(color.Faint)
)

var errEndOfInput = errors.New("end of input")

func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Orchestrator == nil {
		return nil, errors.New("session requires an orchestrator")
	}
	if opts.Profiles == nil {
		return nil, errors.New("session requires a profile store")
	}
	if opts.In == nil || opts.Out == nil {
		return nil, errors.New("session requires input and output streams")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	rounds := opts.MaxClarifyRounds
	if rounds < 0 {
		rounds = defaultMaxClarifyRounds
	}
	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Session{
		orchestrator:     opts.Orchestrator,
		profiles:         opts.Profiles,
		memory:           opts.Memory,
		lines:            scanner,
		out:              opts.Out,
		maxClarifyRounds: rounds,
		logger:           opts.Logger.With(map[string]interface{}{"component": "cli"}),
		newID:            uuid.NewString,
	}, nil
}

// Run loops until quit, end of input or ctx cancellation. Turn failures are
// printed and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	profile, err := s.ensureProfile(ctx)
	if errors.Is(err, errEndOfInput) {
		s.goodbye()
		return nil
	}
	if err != nil {
		return err
	}

	mem := s.loadMemory(ctx, profile.UserID)

	titleColor.Fprintln(s.out, "Personal Research & Learning Agent")
	fmt.Fprintln(s.out, "Type your question, or 'quit' to exit.")
	fmt.Fprintln(s.out)

	for {
		promptColor.Fprint(s.out, "> ")
		line, err := s.readLine(ctx)
		if err != nil {
			s.goodbye()
			return nil
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if isQuit(question) {
			s.goodbye()
			return nil
		}

		if err := s.turn(ctx, question, profile, mem); errors.Is(err, errEndOfInput) {
			s.goodbye()
			return nil
		}
	}
}

func isQuit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// turn runs one question through the clarification rounds. Once the round
// limit is reached the next run is forced final.
func (s *Session) turn(ctx context.Context, question string, profile *models.UserProfile, mem *models.UserMemory) error {
	query := question
	rounds := 0

	var opts []orchestrateturn.TurnOption
	if s.memory != nil && mem != nil {
		opts = append(opts, orchestrateturn.WithMemoryContext(s.memory.BuildPromptContext(mem)))
	}

	for {
		dimColor.Fprintln(s.out, "Thinking...")
		action, err := s.orchestrator.Run(ctx, query, profile, rounds >= s.maxClarifyRounds, opts...)
		if err != nil {
			errorColor.Fprintf(s.out, "Error: %v\n", err)
			s.logger.Warn("turn failed", map[string]interface{}{"error": err.Error()})
			return err
		}

		if !action.NeedsClarification() {
			s.render(action)
			s.remember(ctx, question, action, mem)
			return nil
		}

		askColor.Fprintln(s.out, action.ClarifyingQuestion)
		promptColor.Fprint(s.out, "? ")
		answer, err := s.readLine(ctx)
		if err != nil {
			return errEndOfInput
		}
		if a := strings.TrimSpace(answer); a != "" {
			query += "\n\nClarification: " + a
		}
		rounds++
	}
}

func (s *Session) remember(ctx context.Context, question string, action *orchestrateturn.Action, mem *models.UserMemory) {
	if s.memory == nil || mem == nil || action.Answer == nil {
		return
	}
	u := updatememory.Update{
		Query:   question,
		Mode:    action.Answer.Mode,
		Summary: action.Answer.Explanation,
	}
	if action.Plan != nil {
		u.Topic = s.memory.TopicFromGoal(action.Plan.Goal)
	}
	if action.Intent != nil {
		u.Intent = string(action.Intent.Intent)
	}
	s.memory.UpdateAfterAnswer(mem, u)
	if err := s.memory.Save(ctx, mem); err != nil {
		s.logger.Warn("memory save failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) loadMemory(ctx context.Context, userID string) *models.UserMemory {
	if s.memory == nil {
		return nil
	}
	mem, err := s.memory.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("memory load failed, starting fresh", map[string]interface{}{"error": err.Error()})
		return models.NewUserMemory(userID)
	}
	return mem
}

// readLine returns errEndOfInput on EOF, a read error or cancellation.
func (s *Session) readLine(ctx context.Context) (string, error) {
	type result struct {
		text string
		ok   bool
	}
	ch := make(chan result, 1)
	go func() {
		ok := s.lines.Scan()
		ch <- result{text: s.lines.Text(), ok: ok}
	}()

	select {
	case <-ctx.Done():
		return "", errEndOfInput
	case r := <-ch:
		if !r.ok {
			return "", errEndOfInput
		}
		return r.text, nil
	}
}

func (s *Session) goodbye() {
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Goodbye!")
}
