package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/Lllllllleong/arabicpdftranslator/internal/models"
)

// Utterance parameters for Bangla read-aloud.
const (
	SpeechLanguage = "bn-BD"
	SpeechRate     = 0.8
	SpeechPitch    = 1.0

	speechErrorMessage = "Text-to-speech ত্রুটি হয়েছে।"
)

// Utterance is one piece of text to speak.
type Utterance struct {
	Text  string
	Lang  string
	Rate  float64
	Pitch float64
}

// Synthesizer speaks an utterance and returns when it ends or ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
}

// CommandSynthesizer speaks through an espeak-ng compatible command.
// Cancelling the context kills the process.
type CommandSynthesizer struct {
	Command string
	// BaseRate is the words per minute used at Rate 1.
	BaseRate int
}

func NewCommandSynthesizer(command string) *CommandSynthesizer {
	if command == "" {
		command = "espeak-ng"
	}
	return &CommandSynthesizer{Command: command, BaseRate: 175}
}

func (c *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	bin, err := exec.LookPath(c.Command)
	if err != nil {
		return fmt.Errorf("speech synthesizer %q not found: %w", c.Command, err)
	}
	cmd := exec.CommandContext(ctx, bin, c.args(u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", c.Command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (c *CommandSynthesizer) args(u Utterance) []string {
	voice := u.Lang
	if i := strings.IndexByte(voice, '-'); i > 0 {
		voice = voice[:i]
	}
	return []string{
		"-v", voice,
		"-s", strconv.Itoa(int(math.Round(float64(c.BaseRate) * u.Rate))),
		"-p", strconv.Itoa(int(math.Round(50 * u.Pitch))),
		"--stdin",
	}
}

// Speaker allows at most one utterance at a time. Starting a new one stops
// the previous one first; every way an utterance ends goes through stop.
type Speaker struct {
	synth Synthesizer

	// opMu serializes Start, Stop and Toggle so a stop always completes
	// before the next utterance begins.
	opMu sync.Mutex

	mu       sync.Mutex
	gen      uint64
	speaking bool
	cancel   context.CancelFunc
	done     chan struct{}
	notice   *models.Notice
}

func NewSpeaker(synth Synthesizer) *Speaker {
	return &Speaker{synth: synth}
}

// Start speaks text, replacing any active utterance.
func (s *Speaker) Start(text string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.startLocked(text)
}

// Toggle stops an active utterance, or starts text when silent.
// It reports whether speech is active afterwards.
func (s *Speaker) Toggle(text string) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	if s.Speaking() {
		s.stopLocked()
		return false, nil
	}
	if err := s.startLocked(text); err != nil {
		return false, err
	}
	return true, nil
}

// Stop ends the active utterance, if any, and waits for the synthesizer to return.
func (s *Speaker) Stop() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.stopLocked()
}

func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Status reports the speaking flag and any error from the last utterance.
func (s *Speaker) Status() models.SpeechResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SpeechResponse{Speaking: s.speaking, Notice: s.notice}
}

func (s *Speaker) startLocked(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNothingToRead
	}
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.speaking = true
	s.cancel = cancel
	s.done = done
	s.notice = nil
	s.mu.Unlock()

	u := Utterance{Text: text, Lang: SpeechLanguage, Rate: SpeechRate, Pitch: SpeechPitch}
	go func() {
		defer close(done)
		err := s.synth.Speak(ctx, u)
		s.ended(gen, err)
	}()
	return nil
}

// ended is the end and error path of an utterance.
func (s *Speaker) ended(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Speech synthesis failed.", "error", err)
		s.notice = &models.Notice{Kind: models.NoticeError, Message: speechErrorMessage}
	}
	s.speaking = false
	s.cancel()
	s.cancel, s.done = nil, nil
}

func (s *Speaker) stopLocked() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.gen++
	s.speaking = false
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
