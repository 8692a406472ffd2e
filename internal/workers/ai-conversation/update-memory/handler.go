// internal/workers/ai-conversation/update-memory/handler.go
package updatememory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"research-agent/internal/common/logger"
	"research-agent/internal/common/store"
	"research-agent/internal/models"
)

const TaskType = "update-memory"

// Update describes one answered turn.
type Update struct {
	Query   string
	Topic   string
	Intent  string
	Mode    models.LearningMode
	Summary string
}

// Handler keeps a learner's history and topics between sessions.
type Handler struct {
	config *Config
	store  store.MemoryStore
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, memoryStore store.MemoryStore, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		store:  memoryStore,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
		now: time.Now,
	}
}

// Load returns the stored memory, or a fresh one when none exists.
func (h *Handler) Load(ctx context.Context, userID string) (*models.UserMemory, error) {
	mem, err := h.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	if mem == nil {
		h.logger.Debug("no stored memory, starting fresh", map[string]interface{}{"userId": userID})
		return models.NewUserMemory(userID), nil
	}
	fillDefaults(mem, userID)
	return mem, nil
}

func (h *Handler) Save(ctx context.Context, mem *models.UserMemory) error {
	if err := h.store.Save(ctx, mem); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	h.logger.Debug("memory saved", map[string]interface{}{
		"userId":  mem.UserID,
		"history": len(mem.History),
	})
	return nil
}

// UpdateAfterAnswer appends a history item and moves the topic to the most
// recent end of the topic list.
func (h *Handler) UpdateAfterAnswer(mem *models.UserMemory, u Update) *models.UserMemory {
	mem.History = append(mem.History, models.MemoryItem{
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		Query:     truncateRunes(u.Query, h.config.QueryLimit),
		Topic:     u.Topic,
		Intent:    u.Intent,
		Mode:      u.Mode,
		Summary:   truncateRunes(u.Summary, h.config.SummaryLimit),
	})
	if n := len(mem.History); n > h.config.MaxHistory {
		mem.History = mem.History[n-h.config.MaxHistory:]
	}

	if u.Topic != "" {
		topics := make([]string, 0, len(mem.Topics)+1)
		for _, t := range mem.Topics {
			if t != u.Topic {
				topics = append(topics, t)
			}
		}
		topics = append(topics, u.Topic)
		if n := len(topics); n > h.config.MaxTopics {
			topics = topics[n-h.config.MaxTopics:]
		}
		mem.Topics = topics
		mem.LastTopic = u.Topic
	}
	return mem
}

// BuildPromptContext renders the short memory block given to the generator.
func (h *Handler) BuildPromptContext(mem *models.UserMemory) string {
	recent := "none"
	if len(mem.Topics) > 0 {
		start := len(mem.Topics) - h.config.PromptTopics
		if start < 0 {
			start = 0
		}
		recent = strings.Join(mem.Topics[start:], ", ")
	}
	p := mem.Preferences
	return fmt.Sprintf("USER_MEMORY:\n"+
		"- Recent topics: %s\n"+
		"- Preferences: explanation_style=%s, resource_preference=%s, verbosity=%s\n"+
		"- Avoid repeating basics for topics the user already covered.\n",
		recent, p.ExplanationStyle, p.ResourcePreference, p.Verbosity)
}

// TopicFromGoal turns a plan goal into a topic label.
func (h *Handler) TopicFromGoal(goal string) string {
	return strings.TrimSpace(truncateRunes(strings.TrimSpace(goal), h.config.TopicLimit))
}

func fillDefaults(mem *models.UserMemory, userID string) {
	if mem.UserID == "" {
		mem.UserID = userID
	}
	if mem.History == nil {
		mem.History = []models.MemoryItem{}
	}
	if mem.Topics == nil {
		mem.Topics = []string{}
	}
	defaults := models.DefaultMemoryPreferences()
	if mem.Preferences.ExplanationStyle == "" {
		mem.Preferences.ExplanationStyle = defaults.ExplanationStyle
	}
	if mem.Preferences.ResourcePreference == "" {
		mem.Preferences.ResourcePreference = defaults.ResourcePreference
	}
	if mem.Preferences.Verbosity == "" {
		mem.Preferences.Verbosity = defaults.Verbosity
	}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
