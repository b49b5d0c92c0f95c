// Package server exposes the translator session over JSON HTTP endpoints.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
	"github.com/Lllllllleong/arabicpdftranslator/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// multipartMemory is the part of an upload kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// Server routes requests to an App.
type Server struct {
	app *services.App
	mux *http.ServeMux
}

// New registers all routes for app.
func New(app *services.App) *Server {
	s := &Server{app: app, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /document", s.handleSelectDocument)
	s.mux.HandleFunc("PUT /mode", s.handleSetMode)

	s.mux.HandleFunc("POST /runs", s.handleStartRun)
	s.mux.HandleFunc("DELETE /runs", s.handleStopRun)
	s.mux.HandleFunc("GET /runs", s.handleRunStatus)

	s.mux.HandleFunc("GET /settings/api-key", s.handleAPIKeyStatus)
	s.mux.HandleFunc("PUT /settings/api-key", s.handleSaveAPIKey)
	s.mux.HandleFunc("POST /settings/api-key/test", s.handleTestAPIKey)
	s.mux.HandleFunc("GET /settings/theme", s.handleGetTheme)
	s.mux.HandleFunc("PUT /settings/theme", s.handleSetTheme)

	s.mux.HandleFunc("GET /history", s.handleListHistory)
	s.mux.HandleFunc("POST /history/{id}/load", s.handleLoadHistory)

	s.mux.HandleFunc("GET /reader", s.handleReaderState)
	s.mux.HandleFunc("POST /reader/open", s.handleReaderOpen)
	s.mux.HandleFunc("POST /reader/font", s.handleReaderFont)
	s.mux.HandleFunc("POST /reader/dark", s.handleReaderDark)
	s.mux.HandleFunc("POST /reader/close", s.handleReaderClose)

	s.mux.HandleFunc("POST /speech/toggle", s.handleSpeechToggle)
	s.mux.HandleFunc("POST /speech/stop", s.handleSpeechStop)
	s.mux.HandleFunc("POST /visibility", s.handleVisibility)

	s.mux.HandleFunc("POST /clear", s.handleClear)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	s.mux.Handle("GET /metrics", promhttp.Handler())
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	slog.Info("Request handled.", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start).String())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handleSelectDocument accepts a multipart upload in the "file" field.
// The declared size is always recorded; content above the size limit is not
// read, so the run is rejected when it is started.
func (s *Server) handleSelectDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Error("Could not parse upload.", "error", err)
		http.Error(w, "Bad Request: expected a multipart upload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Bad Request: missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	doc := models.Document{Name: header.Filename, Size: header.Size}
	if limit := s.app.Config.MaxFileSizeBytes; header.Size <= limit {
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			slog.Error("Could not read upload.", "error", err)
			http.Error(w, "Internal Server Error: failed to read upload", http.StatusInternalServerError)
			return
		}
		doc.Data = data
		if int64(len(data)) > doc.Size {
			doc.Size = int64(len(data))
		}
	}
	writeJSON(w, http.StatusOK, s.app.Session.Select(doc))
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req models.ModeRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.app.Session.SetMode(mode)
	writeJSON(w, http.StatusOK, s.app.Session.Status())
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	st, err := s.app.Session.Start(r.Context())
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, st)
	case errors.Is(err, services.ErrRunActive):
		writeJSON(w, http.StatusConflict, st)
	case errors.Is(err, services.ErrNoDocument),
		errors.Is(err, services.ErrNoCredential),
		errors.Is(err, services.ErrDocumentTooLarge):
		writeJSON(w, http.StatusBadRequest, st)
	default:
		slog.Error("Failed to start run.", "error", err)
		writeJSON(w, http.StatusInternalServerError, st)
	}
}

func (s *Server) handleStopRun(w http.ResponseWriter, r *http.Request) {
	st, _ := s.app.Session.Stop()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Session.Status())
}

func (s *Server) handleAPIKeyStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.app.APIKeyStatus(r.Context())
	if err != nil {
		internalError(w, "Failed to read API key.", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveAPIKey(w http.ResponseWriter, r *http.Request) {
	var req models.APIKeyRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.app.SaveAPIKey(r.Context(), req.APIKey)
	switch {
	case errors.Is(err, services.ErrInvalidAPIKey):
		writeJSON(w, http.StatusBadRequest, resp)
	case err != nil:
		internalError(w, "Failed to save API key.", err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleTestAPIKey(w http.ResponseWriter, r *http.Request) {
	var req models.APIKeyRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	resp, err := s.app.TestAPIKey(r.Context(), req.APIKey)
	switch {
	case errors.Is(err, services.ErrNoCredential), errors.Is(err, services.ErrInvalidAPIKey):
		writeJSON(w, http.StatusBadRequest, resp)
	case err != nil:
		internalError(w, "Failed to test API key.", err)
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.app.Settings.Theme(r.Context())
	if err != nil {
		internalError(w, "Failed to read theme.", err)
		return
	}
	writeJSON(w, http.StatusOK, models.ThemePayload{Theme: theme})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req models.ThemePayload
	if !decode(w, r, &req) {
		return
	}
	if err := s.app.Settings.SetTheme(r.Context(), req.Theme); err != nil {
		if errors.Is(err, services.ErrInvalidTheme) {
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, "Failed to save theme.", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.app.History.List(r.Context())
	if err != nil {
		internalError(w, "Failed to read history.", err)
		return
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{Entries: entries})
}

func (s *Server) handleLoadHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad Request: invalid history id", http.StatusBadRequest)
		return
	}
	st, err := s.app.Session.LoadHistory(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrHistoryNotFound):
		http.Error(w, "Not Found: no such history entry", http.StatusNotFound)
	case errors.Is(err, services.ErrRunActive):
		writeJSON(w, http.StatusConflict, st)
	case err != nil:
		internalError(w, "Failed to load history entry.", err)
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleReaderState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Reader.State())
}

func (s *Server) handleReaderOpen(w http.ResponseWriter, r *http.Request) {
	var req models.ReaderOpenRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := s.app.Reader.Open(req.Kind)
	if err != nil {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReaderFont(w http.ResponseWriter, r *http.Request) {
	var req models.FontSizeRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.app.Reader.ChangeFont(req.Delta))
}

func (s *Server) handleReaderDark(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Reader.ToggleDark())
}

func (s *Server) handleReaderClose(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Reader.Close())
}

func (s *Server) handleSpeechToggle(w http.ResponseWriter, r *http.Request) {
	resp, err := s.app.Reader.ToggleSpeech()
	if errors.Is(err, services.ErrNothingToRead) {
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpeechStop(w http.ResponseWriter, r *http.Request) {
	s.app.Speaker.Stop()
	writeJSON(w, http.StatusOK, s.app.Speaker.Status())
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req models.VisibilityRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.app.SetVisibility(req.Hidden))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.NoticeResponse{Notice: s.app.ClearAll()})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Error("Could not decode request body.", "path", r.URL.Path, "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func internalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error: "+msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
