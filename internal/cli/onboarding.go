package cli

import (
	"context"
	"fmt"
	"strings"

	"research-agent/internal/models"
)

const notProvided = "Not provided"

// ensureProfile loads the stored profile or runs onboarding once.
func (s *Session) ensureProfile(ctx context.Context) (*models.UserProfile, error) {
	profile, err := s.profiles.Load()
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	profile, err = s.onboard(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Save(profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.logger.Info("profile created", map[string]interface{}{"userId": profile.UserID})
	return profile, nil
}

func (s *Session) onboard(ctx context.Context) (*models.UserProfile, error) {
	headerColor.Fprintln(s.out, "Let's set up your profile (one-time).")

	background, err := s.ask(ctx, "Your background (1 sentence): ")
	if err != nil {
		return nil, err
	}
	goals, err := s.ask(ctx, "What are you using this assistant for? ")
	if err != nil {
		return nil, err
	}
	levelRaw, err := s.ask(ctx, "Your level (beginner/intermediate/advanced): ")
	if err != nil {
		return nil, err
	}
	outputRaw, err := s.ask(ctx, "Preferred output (concise/balanced/detailed): ")
	if err != nil {
		return nil, err
	}

	level, _ := models.ParseUserLevel(strings.ToLower(levelRaw))
	output, _ := models.ParseOutputPreference(strings.ToLower(outputRaw))

	return &models.UserProfile{
		UserID:             s.newID(),
		Background:         orNotProvided(background),
		Level:              level,
		Goals:              orNotProvided(goals),
		PreferredOutput:    output,
		PreferredResources: []string{},
	}, nil
}

func (s *Session) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func orNotProvided(s string) string {
	if s == "" {
		return notProvided
	}
	return s
}
