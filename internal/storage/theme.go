package storage

import (
	"fmt"

	"github.com/valter-silva-au/mytasks/pkg/models"
)

// DefaultThemeKey is the key the color scheme preference is stored under.
const DefaultThemeKey = "mantine-color-scheme"

// ThemeStore persists the light/dark preference separately from task data.
type ThemeStore interface {
	Get() models.Theme
	Set(theme models.Theme) error
	Toggle() (models.Theme, error)
}

type kvThemeStore struct {
	kv       KeyValueStore
	key      string
	fallback models.Theme
}

// NewThemeStore creates a ThemeStore under key in kv. fallback is returned
// while nothing valid is stored; an invalid fallback means light.
func NewThemeStore(kv KeyValueStore, key string, fallback models.Theme) ThemeStore {
	if key == "" {
		key = DefaultThemeKey
	}
	if !fallback.Valid() {
		fallback = models.ThemeLight
	}
	return &kvThemeStore{kv: kv, key: key, fallback: fallback}
}

// Get never fails: unreadable or unknown values yield the fallback theme.
func (s *kvThemeStore) Get() models.Theme {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil || !ok {
		return s.fallback
	}
	theme := models.Theme(raw)
	if !theme.Valid() {
		return s.fallback
	}
	return theme
}

func (s *kvThemeStore) Set(theme models.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("setting theme: unknown theme %q", theme)
	}
	if err := s.kv.Set(s.key, string(theme)); err != nil {
		return fmt.Errorf("setting theme: %w", err)
	}
	return nil
}

func (s *kvThemeStore) Toggle() (models.Theme, error) {
	next := s.Get().Toggled()
	if err := s.Set(next); err != nil {
		return s.Get(), err
	}
	return next, nil
}
