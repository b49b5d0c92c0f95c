package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
)

const (
	largeFileWarningBytes = 10 << 20
	artifactTimeout       = time.Minute
	stopMessage           = "অনুবাদ বন্ধ করা হয়েছে!"
	clearMessage          = "সব কিছু রিসেট করা হয়েছে।"
	historyLoadedMessage  = "ইতিহাস থেকে লোড করা হয়েছে!"
)

// ArtifactSaver receives the full buffers of a completed run.
type ArtifactSaver interface {
	SaveRun(ctx context.Context, runID, arabic, bangla string) error
}

// ReadinessChecker reports whether a run may call the translation endpoint.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// Session owns the selected document, the two text buffers, and the single
// translation run that may be active at any time.
type Session struct {
	runner    *Runner
	ready     ReadinessChecker
	history   *History
	artifacts ArtifactSaver
	maxSize   int64
	now       func() time.Time

	mu          sync.Mutex
	doc         *models.Document
	mode        models.Mode
	state       models.RunState
	lastOutcome models.RunState
	gen         uint64
	runID       string
	runMode     models.Mode
	progress    int
	currentPage int
	totalPages  int
	arabic      string
	bangla      string
	notice      *models.Notice
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewSession creates an idle session in text mode. artifacts may be nil.
func NewSession(runner *Runner, ready ReadinessChecker, history *History, artifacts ArtifactSaver, maxSize int64) *Session {
	return &Session{
		runner:    runner,
		ready:     ready,
		history:   history,
		artifacts: artifacts,
		maxSize:   maxSize,
		now:       time.Now,
		mode:      models.ModeText,
		state:     models.RunIdle,
	}
}

// Select replaces the current document. A run already in progress keeps
// working on the document it started with.
func (s *Session) Select(doc models.Document) models.DocumentResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = &doc
	resp := models.DocumentResponse{
		Name:   doc.Name,
		Size:   doc.Size,
		SizeMB: fmt.Sprintf("%.2f", float64(doc.Size)/(1<<20)),
	}
	if doc.Size > largeFileWarningBytes {
		resp.Notice = &models.Notice{
			Kind:    models.NoticeWarning,
			Message: fmt.Sprintf("বড় ফাইল (%s MB): প্রসেসিং বেশি সময় নিতে পারে।", resp.SizeMB),
		}
		s.notice = resp.Notice
	}
	return resp
}

// SetMode selects the extraction mode for the next run.
func (s *Session) SetMode(mode models.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// Start validates the session and launches a run in the background.
// Validation failures leave the buffers untouched and issue no request.
// A rejection because a run is active is reported only in the returned
// status, so the active run's notice survives.
func (s *Session) Start(ctx context.Context) (models.RunStatus, error) {
	// The credential lookup may be a remote read; keep it outside the lock.
	readyErr := s.ready.Ready(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(readyErr); err != nil {
		notice := &models.Notice{Kind: models.NoticeError, Message: userMessage(err)}
		if errors.Is(err, ErrRunActive) {
			st := s.statusLocked()
			st.Notice = notice
			return st, err
		}
		s.notice = notice
		return s.statusLocked(), err
	}

	doc := *s.doc
	s.gen++
	gen := s.gen
	s.runID = fmt.Sprintf("run-%d", s.now().UnixMilli())
	s.runMode = s.mode
	s.state = models.RunRunning
	s.progress, s.currentPage, s.totalPages = 0, 0, 0
	s.arabic, s.bangla = "", ""
	s.notice = nil

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	logCtx := slog.With("runId", s.runID, "document", doc.Name, "mode", s.runMode)
	logCtx.Info("Starting run.", "size", doc.Size)
	go s.run(runCtx, logCtx, gen, s.runID, doc, s.runMode, s.done)

	return s.statusLocked(), nil
}

// validateLocked checks, in order: no active run, a selected document, a
// usable credential (readyErr), and the size limit.
func (s *Session) validateLocked(readyErr error) error {
	if s.state == models.RunRunning || s.state == models.RunStopping {
		return ErrRunActive
	}
	if s.doc == nil {
		return ErrNoDocument
	}
	if readyErr != nil {
		return readyErr
	}
	if s.doc.Size > s.maxSize || int64(len(s.doc.Data)) > s.maxSize {
		return ErrDocumentTooLarge
	}
	return nil
}

func (s *Session) run(ctx context.Context, logCtx *slog.Logger, gen uint64, runID string, doc models.Document, mode models.Mode, done chan struct{}) {
	defer close(done)

	res, err := s.runner.Run(ctx, logCtx, doc, mode, func(p Progress) {
		s.applyProgress(gen, p)
	})

	completed := s.finish(ctx, logCtx, gen, doc, mode, res, err)
	if completed && s.artifacts != nil {
		exportCtx, cancel := context.WithTimeout(context.Background(), artifactTimeout)
		defer cancel()
		if err := s.artifacts.SaveRun(exportCtx, runID, res.Arabic, res.Bangla); err != nil {
			logCtx.Error("Failed to export run artifacts.", "error", err)
		} else {
			logCtx.Info("Run artifacts exported.")
		}
	}
}

func (s *Session) applyProgress(gen uint64, p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.totalPages = p.Total
	s.currentPage = p.Page
	if p.Percent > s.progress {
		s.progress = p.Percent
	}
	s.arabic, s.bangla = p.Arabic, p.Bangla
}

// finish records the outcome of a run and reports whether it completed.
// History is written under the lock so a concurrent Stop either wins and
// suppresses it, or arrives after the run is already complete.
func (s *Session) finish(ctx context.Context, logCtx *slog.Logger, gen uint64, doc models.Document, mode models.Mode, res RunResult, runErr error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := models.RunCompleted
	switch {
	case s.state == models.RunStopping || ctx.Err() != nil:
		outcome = models.RunStopped
		logCtx.Info("Run stopped by user.")
	case runErr != nil:
		outcome = models.RunFailed
		logCtx.Error("Run failed.", "error", runErr)
		if gen == s.gen {
			s.notice = &models.Notice{Kind: models.NoticeError, Message: userMessage(runErr)}
		}
	default:
		if _, err := s.history.Append(context.WithoutCancel(ctx), doc.Name, res.Arabic, res.Bangla); err != nil {
			logCtx.Error("Failed to save history entry.", "error", err)
		}
		if gen == s.gen {
			s.notice = &models.Notice{Kind: models.NoticeSuccess, Message: successMessage(mode, res.Pages)}
		}
		logCtx.Info("Run completed.", "totalPages", res.Pages)
	}
	runsTotal.WithLabelValues(string(outcome)).Inc()

	s.state = models.RunIdle
	s.lastOutcome = outcome
	s.cancel()
	s.cancel = nil
	return outcome == models.RunCompleted
}

// Stop cancels the active run. The run exits at its next polling point;
// use Wait to block until it has. Stop reports whether a run was active.
func (s *Session) Stop() (models.RunStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.RunRunning {
		return s.statusLocked(), false
	}
	s.stopLocked()
	s.notice = &models.Notice{Kind: models.NoticeWarning, Message: stopMessage}
	return s.statusLocked(), true
}

func (s *Session) stopLocked() {
	s.state = models.RunStopping
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the current run, if any, has exited.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the session.
func (s *Session) Status() models.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() models.RunStatus {
	st := models.RunStatus{
		RunID:          s.runID,
		State:          s.state,
		LastOutcome:    s.lastOutcome,
		Mode:           s.mode,
		Progress:       s.progress,
		CurrentPage:    s.currentPage,
		TotalPages:     s.totalPages,
		SourceText:     s.arabic,
		TranslatedText: s.bangla,
		Notice:         s.notice,
	}
	if s.state == models.RunRunning || s.state == models.RunStopping {
		st.Mode = s.runMode
	}
	if s.doc != nil {
		st.DocumentName = s.doc.Name
		st.DocumentSize = s.doc.Size
	}
	return st
}

// Buffers returns the accumulated Arabic and Bangla text.
func (s *Session) Buffers() (arabic, bangla string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arabic, s.bangla
}

// LoadHistory replaces the buffers with a history entry's preview text.
func (s *Session) LoadHistory(ctx context.Context, id int64) (models.RunStatus, error) {
	entry, err := s.history.Get(ctx, id)
	if err != nil {
		return models.RunStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.RunRunning || s.state == models.RunStopping {
		return s.statusLocked(), ErrRunActive
	}
	s.arabic, s.bangla = entry.ArabicText, entry.BanglaText
	s.notice = &models.Notice{Kind: models.NoticeSuccess, Message: historyLoadedMessage}
	return s.statusLocked(), nil
}

// Clear stops any run and resets the document, buffers and progress.
// Late updates from the stopped run are discarded; the session stays in
// Stopping until that run has exited.
func (s *Session) Clear() *models.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == models.RunRunning {
		s.stopLocked()
	}
	s.gen++
	s.doc = nil
	s.runID = ""
	s.arabic, s.bangla = "", ""
	s.progress, s.currentPage, s.totalPages = 0, 0, 0
	s.notice = &models.Notice{Kind: models.NoticeSuccess, Message: clearMessage}
	return s.notice
}

// Close stops the active run and waits for it to exit.
func (s *Session) Close(ctx context.Context) error {
	s.Stop()
	if err := s.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
