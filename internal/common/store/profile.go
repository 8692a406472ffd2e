package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "research-agent/internal/common/errors"
	"research-agent/internal/models"
)

// ProfileStore persists the single local user profile as a JSON document.
type ProfileStore struct {
	path string
}

func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

// Load returns nil, nil when no profile has been saved yet.
func (s *ProfileStore) Load() (*models.UserProfile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, apperrors.NewStoreReadError(err)
	}
	return &profile, nil
}

func (s *ProfileStore) Save(profile *models.UserProfile) error {
	return writeJSON(s.path, profile)
}

// writeJSON writes the whole document, replacing any previous content.
func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewStoreWriteError(err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewStoreWriteError(err)
	}
	return nil
}
