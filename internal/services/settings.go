package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
)

// MaskedAPIKey is what clients display in place of a saved key.
// Submitting it back is a no-op.
const MaskedAPIKey = "••••••••••••••••"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings holds the persisted API key and theme preference.
type Settings struct {
	store  store.Store
	envKey string
}

// NewSettings reads and writes settings in s. envKey is used when no key has been saved.
func NewSettings(s store.Store, envKey string) *Settings {
	return &Settings{store: s, envKey: envKey}
}

// APIKey implements CredentialSource.
func (s *Settings) APIKey(ctx context.Context) (string, error) {
	key, err := s.store.Get(ctx, store.KeyAPIKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	if key == "" {
		return s.envKey, nil
	}
	return key, nil
}

// SetAPIKey saves key. It reports whether anything was written.
func (s *Settings) SetAPIKey(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	switch key {
	case "":
		return false, ErrInvalidAPIKey
	case MaskedAPIKey:
		return false, nil
	}
	if err := s.store.Set(ctx, store.KeyAPIKey, key); err != nil {
		return false, fmt.Errorf("failed to save API key: %w", err)
	}
	return true, nil
}

// HasAPIKey reports whether a key is saved or supplied by the environment.
func (s *Settings) HasAPIKey(ctx context.Context) (bool, error) {
	key, err := s.APIKey(ctx)
	return key != "", err
}

// Theme returns the saved theme, light when unset.
func (s *Settings) Theme(ctx context.Context) (string, error) {
	theme, err := s.store.Get(ctx, store.KeyTheme)
	if errors.Is(err, store.ErrNotFound) || (err == nil && theme == "") {
		return ThemeLight, nil
	}
	return theme, err
}

func (s *Settings) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidTheme
	}
	return s.store.Set(ctx, store.KeyTheme, theme)
}
