package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/pdf"
	"github.com/Lllllllleong/arabicpdftranslator/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	prompts []string
	keys    []string
	noKey   bool
	reply   func(n int, prompt string) (string, error)
}

func (f *fakeBackend) Name() string         { return "fake" }
func (f *fakeBackend) RequiresAPIKey() bool { return !f.noKey }

func (f *fakeBackend) Generate(_ context.Context, apiKey, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.keys = append(f.keys, apiKey)
	n := len(f.prompts)
	reply := f.reply
	f.mu.Unlock()
	if reply != nil {
		return reply(n, prompt)
	}
	return "অনুবাদ", nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeExtraction struct {
	mu      sync.Mutex
	pages   []string
	pageErr map[int]error
	closed  int
}

func (f *fakeExtraction) Total() int { return len(f.pages) }

func (f *fakeExtraction) Page(ctx context.Context, index int) (models.PageResult, error) {
	if err := ctx.Err(); err != nil {
		return models.PageResult{}, err
	}
	if err := f.pageErr[index]; err != nil {
		return models.PageResult{}, err
	}
	return models.PageResult{Index: index, Text: f.pages[index-1]}, nil
}

func (f *fakeExtraction) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeExtraction) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	mu    sync.Mutex
	ex    *fakeExtraction
	err   error
	modes []models.Mode
}

func (f *fakeOpener) Open(_ context.Context, _ models.Document, mode models.Mode) (pdf.Extraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	if f.err != nil {
		return nil, f.err
	}
	return f.ex, nil
}

func (f *fakeOpener) opened() []models.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Mode(nil), f.modes...)
}

type fakeSynth struct {
	mu        sync.Mutex
	active    int
	maxActive int
	spoken    []Utterance
	err       error
	// untilCancel keeps each utterance going until it is stopped.
	untilCancel bool
}

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	f.mu.Lock()
	f.active++
	f.maxActive = max(f.maxActive, f.active)
	f.spoken = append(f.spoken, u)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if f.err != nil {
		return f.err
	}
	if f.untilCancel {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSynth) snapshot() (active, maxActive int, spoken []Utterance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.maxActive, append([]Utterance(nil), f.spoken...)
}

type staticBuffers struct {
	arabic, bangla string
}

func (b staticBuffers) Buffers() (string, string) { return b.arabic, b.bangla }

// newTestApp returns an App with a saved API key, no page delays and an
// in-memory store.
func newTestApp(t *testing.T, opener *fakeOpener, backend *fakeBackend) (*App, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), store.KeyAPIKey, "test-key"))
	app := NewAppWithDeps(Deps{
		Config:      &Config{MaxFileSizeBytes: 20 << 20},
		Store:       st,
		Backend:     backend,
		Extractor:   opener,
		Synthesizer: &fakeSynth{untilCancel: true},
	})
	return app, st
}

func waitForRun(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func pdfDoc(name string, size int64) models.Document {
	return models.Document{Name: name, Size: size, Data: []byte("%PDF-1.4 test")}
}
