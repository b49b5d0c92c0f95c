package models

import "fmt"

// Mode selects how page text is obtained from a document.
type Mode string

const (
	// ModeText reads the embedded text layer of each page.
	ModeText Mode = "text"
	// ModeOCR rasterizes each page and runs optical character recognition.
	ModeOCR Mode = "ocr"
)

// ParseMode validates a user supplied mode selector.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeText, ModeOCR:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown extraction mode %q", s)
}

// Document is an uploaded file held in memory for the duration of a session.
// Size is the declared size; Data may be nil when the upload was rejected
// before it was read in full.
type Document struct {
	Name string
	Size int64
	Data []byte
}

// PageResult is the text extracted from one page. Text may be empty.
type PageResult struct {
	Index int
	Text  string
}

// HistoryEntry is a truncated snapshot of a completed run.
// The JSON field names match the persisted history list.
type HistoryEntry struct {
	ID         int64  `json:"id" firestore:"id"`
	Title      string `json:"title" firestore:"title"`
	ArabicText string `json:"arabicText" firestore:"arabicText"`
	BanglaText string `json:"banglaText" firestore:"banglaText"`
	Date       string `json:"date" firestore:"date"`
}

// RunState is the lifecycle state of a translation run.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunStopping  RunState = "stopping"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
	RunStopped   RunState = "stopped"
)

// NoticeKind classifies a user notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message for the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}
