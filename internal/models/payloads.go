package models

// These structs define the JSON payloads exchanged with the HTTP surface.

// RunStatus is a snapshot of the session returned by GET /runs.
type RunStatus struct {
	RunID          string   `json:"runId,omitempty"`
	State          RunState `json:"state"`
	LastOutcome    RunState `json:"lastOutcome,omitempty"`
	Mode           Mode     `json:"mode"`
	DocumentName   string   `json:"documentName,omitempty"`
	DocumentSize   int64    `json:"documentSize,omitempty"`
	Progress       int      `json:"progress"`
	CurrentPage    int      `json:"currentPage"`
	TotalPages     int      `json:"totalPages"`
	SourceText     string   `json:"arabicText"`
	TranslatedText string   `json:"banglaText"`
	Notice         *Notice  `json:"notice,omitempty"`
}

// DocumentResponse is returned after a file has been selected.
type DocumentResponse struct {
	Name   string  `json:"name"`
	Size   int64   `json:"size"`
	SizeMB string  `json:"sizeMb"`
	Notice *Notice `json:"notice,omitempty"`
}

// ModeRequest is the body of PUT /mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// APIKeyRequest is the body of PUT /settings/api-key and
// POST /settings/api-key/test. An empty key on test reuses the stored key.
type APIKeyRequest struct {
	APIKey string `json:"apiKey"`
}

// APIKeyResponse never carries the key itself.
type APIKeyResponse struct {
	Configured bool    `json:"configured"`
	Masked     string  `json:"masked,omitempty"`
	Notice     *Notice `json:"notice,omitempty"`
}

// ThemePayload is used for both reading and writing the theme preference.
type ThemePayload struct {
	Theme string `json:"theme"`
}

// HistoryResponse lists history entries most recent first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ReaderOpenRequest is the body of POST /reader/open.
type ReaderOpenRequest struct {
	Kind string `json:"kind"`
}

// FontSizeRequest is the body of POST /reader/font.
type FontSizeRequest struct {
	Delta int `json:"delta"`
}

// ReaderResponse describes the reader overlay.
type ReaderResponse struct {
	Open     bool   `json:"open"`
	Kind     string `json:"kind,omitempty"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content,omitempty"`
	FontSize int    `json:"fontSize,omitempty"`
	Dark     bool   `json:"dark"`
	Speaking bool   `json:"speaking"`
}

// VisibilityRequest is the body of POST /visibility.
type VisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// SpeechResponse reports the read-aloud state.
type SpeechResponse struct {
	Speaking bool    `json:"speaking"`
	Notice   *Notice `json:"notice,omitempty"`
}

// NoticeResponse wraps a single notice.
type NoticeResponse struct {
	Notice *Notice `json:"notice,omitempty"`
}

// GCSEvent is the payload of a Cloud Storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
	Size   string `json:"size"`
}
