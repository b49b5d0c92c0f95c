// Package store persists small string values under fixed keys: the API
// credential, the theme preference, and the JSON-encoded history list.
package store

import (
	"context"
	"errors"
)

// Keys used by the application.
const (
	KeyAPIKey  = "gemini_api_key"
	KeyTheme   = "theme"
	KeyHistory = "translationHistory"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is a string key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Updater is implemented by stores that can apply a read-modify-write
// atomically. fn may be called more than once and must not have side effects.
type Updater interface {
	Update(ctx context.Context, key string, fn func(current string) (string, error)) error
}

// Update applies fn to the current value of key and writes the result.
// A missing key is passed to fn as "". Stores implementing Updater apply
// the change atomically; others fall back to Get then Set.
func Update(ctx context.Context, s Store, key string, fn func(current string) (string, error)) error {
	if u, ok := s.(Updater); ok {
		return u.Update(ctx, key, fn)
	}
	current, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, next)
}
