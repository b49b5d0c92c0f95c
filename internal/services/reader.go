package services

import (
	"fmt"
	"sync"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
)

const (
	ReaderArabic = "arabic"
	ReaderBangla = "bangla"

	minReaderFont = 12
	maxReaderFont = 40
)

type readerView struct {
	title       string
	placeholder string
	fontSize    int
}

var readerViews = map[string]readerView{
	ReaderArabic: {title: "আরবি টেক্সট", placeholder: "কোনো টেক্সট নেই", fontSize: 24},
	ReaderBangla: {title: "বাংলা অনুবাদ", placeholder: "কোনো অনুবাদ নেই", fontSize: 20},
}

// BufferSource is satisfied by *Session.
type BufferSource interface {
	Buffers() (arabic, bangla string)
}

// Reader is the full-screen view of one buffer. Opening or closing it stops speech.
type Reader struct {
	buffers BufferSource
	speaker *Speaker

	mu       sync.Mutex
	open     bool
	kind     string
	text     string
	fontSize int
	dark     bool
}

func NewReader(buffers BufferSource, speaker *Speaker) *Reader {
	return &Reader{buffers: buffers, speaker: speaker}
}

// Open shows a snapshot of the arabic or bangla buffer.
func (r *Reader) Open(kind string) (models.ReaderResponse, error) {
	view, ok := readerViews[kind]
	if !ok {
		return models.ReaderResponse{}, fmt.Errorf("unknown reader view %q", kind)
	}
	r.speaker.Stop()

	arabic, bangla := r.buffers.Buffers()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = true
	r.kind = kind
	r.text = bangla
	if kind == ReaderArabic {
		r.text = arabic
	}
	r.fontSize = view.fontSize
	r.dark = false
	return r.responseLocked(), nil
}

// Close hides the reader and stops speech.
func (r *Reader) Close() models.ReaderResponse {
	r.speaker.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.kind, r.text = "", ""
	return r.responseLocked()
}

// ChangeFont adjusts the font size by delta, clamped to 12..40.
func (r *Reader) ChangeFont(delta int) models.ReaderResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open {
		r.fontSize = max(minReaderFont, min(maxReaderFont, r.fontSize+delta))
	}
	return r.responseLocked()
}

func (r *Reader) ToggleDark() models.ReaderResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open {
		r.dark = !r.dark
	}
	return r.responseLocked()
}

// ToggleSpeech reads the open view aloud, or stops reading.
// The placeholder is never spoken.
func (r *Reader) ToggleSpeech() (models.SpeechResponse, error) {
	r.mu.Lock()
	text := ""
	if r.open {
		text = r.text
	}
	r.mu.Unlock()

	speaking, err := r.speaker.Toggle(text)
	if err != nil {
		return models.SpeechResponse{Notice: &models.Notice{Kind: models.NoticeWarning, Message: userMessage(err)}}, err
	}
	st := r.speaker.Status()
	st.Speaking = speaking
	return st, nil
}

func (r *Reader) State() models.ReaderResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseLocked()
}

func (r *Reader) responseLocked() models.ReaderResponse {
	resp := models.ReaderResponse{Open: r.open, Dark: r.dark, Speaking: r.speaker.Speaking()}
	if !r.open {
		return resp
	}
	view := readerViews[r.kind]
	resp.Kind = r.kind
	resp.Title = view.title
	resp.Content = r.text
	if resp.Content == "" {
		resp.Content = view.placeholder
	}
	resp.FontSize = r.fontSize
	return resp
}
