package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
)

const (
	historyPreviewRunes = 200
	defaultHistoryTitle = "অনুবাদ"
)

// History is the prepend-only list of completed runs, stored as one JSON blob.
type History struct {
	mu    sync.Mutex
	store store.Store
	now   func() time.Time
}

func NewHistory(s store.Store) *History {
	return &History{store: s, now: time.Now}
}

// Append stores a truncated snapshot of a run as the newest entry.
func (h *History) Append(ctx context.Context, title, arabic, bangla string) (models.HistoryEntry, error) {
	now := h.now()
	if title == "" {
		title = defaultHistoryTitle
	}
	entry := models.HistoryEntry{
		ID:         now.UnixMilli(),
		Title:      title,
		ArabicText: truncateRunes(arabic, historyPreviewRunes) + "...",
		BanglaText: truncateRunes(bangla, historyPreviewRunes) + "...",
		Date:       banglaDate(now),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	err := store.Update(ctx, h.store, store.KeyHistory, func(current string) (string, error) {
		entries, err := decodeHistory(current)
		if err != nil {
			return "", err
		}
		entries = append([]models.HistoryEntry{entry}, entries...)
		b, err := json.Marshal(entries)
		if err != nil {
			return "", fmt.Errorf("failed to encode history: %w", err)
		}
		return string(b), nil
	})
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("failed to save history entry: %w", err)
	}
	return entry, nil
}

// List returns all entries, most recent first.
func (h *History) List(ctx context.Context) ([]models.HistoryEntry, error) {
	raw, err := h.store.Get(ctx, store.KeyHistory)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return decodeHistory(raw)
}

func (h *History) Get(ctx context.Context, id int64) (models.HistoryEntry, error) {
	entries, err := h.List(ctx)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.HistoryEntry{}, ErrHistoryNotFound
}

func decodeHistory(raw string) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	if strings.TrimSpace(raw) == "" {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return entries, nil
}

var bengaliDigits = strings.NewReplacer(
	"0", "০", "1", "১", "2", "২", "3", "৩", "4", "৪",
	"5", "৫", "6", "৬", "7", "৭", "8", "৮", "9", "৯",
)

// banglaDate formats t as a bn-BD short date, e.g. ১৪/১০/২০২৬.
func banglaDate(t time.Time) string {
	return bengaliDigits.Replace(fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()))
}
