// Package shell implements the interactive chat draft surface: a single
// draft buffer that voice transcripts merge into and typed input replaces.
package shell

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/finvox/finvox/internal/config"
	"github.com/finvox/finvox/internal/merge"
)

// Shell owns the draft buffer and the one-line status surface shown while a
// voice operation runs. It satisfies both the coordinator's Feedback and
// Committer contracts so a finished transcript lands directly in the draft.
type Shell struct {
	cfg    config.ShellConfig
	out    io.Writer
	logger *slog.Logger

	mu     sync.Mutex
	buffer string
	notice string
	ack    *time.Timer
}

// NewShell constructs a draft shell writing status output to out.
func NewShell(cfg config.ShellConfig, out io.Writer, logger *slog.Logger) *Shell {
	return &Shell{cfg: cfg, out: out, logger: logger}
}

// Buffer returns the current draft text.
func (s *Shell) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// SetBuffer replaces the draft with typed input. The last writer wins:
// typing over a voice-merged draft discards the merge.
func (s *Shell) SetBuffer(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = text
}

// Clear empties the draft and any pending acknowledgement.
func (s *Shell) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = ""
	s.clearNoticeLocked()
}

// Notice returns the status line currently on display, or "".
func (s *Shell) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// ApplyTranscript merges transcribed text into whatever the draft holds at
// commit time, shows a brief acknowledgement, and returns the merged draft.
func (s *Shell) ApplyTranscript(text string) string {
	s.mu.Lock()
	s.buffer = merge.Merge(s.buffer, text)
	merged := s.buffer
	s.setNoticeLocked("transcript added to draft")
	s.mu.Unlock()

	fmt.Fprintf(s.out, "+ %s\n", merged)
	if s.logger != nil {
		s.logger.Debug("transcript merged into draft", "chars", len(merged))
	}
	return merged
}

// Commit implements the coordinator's Committer contract.
func (s *Shell) Commit(_ context.Context, transcript string) error {
	s.ApplyTranscript(transcript)
	return nil
}

// ShowRecording announces an active capture session.
func (s *Shell) ShowRecording(_ context.Context, device string) {
	s.setNotice("recording")
	fmt.Fprintf(s.out, "* recording from %s (type /voice to stop)\n", device)
}

// ShowTranscribing announces that the recording is being transcribed.
func (s *Shell) ShowTranscribing(context.Context) {
	s.setNotice("transcribing")
	fmt.Fprintln(s.out, "* transcribing...")
}

// ShowError surfaces a failure banner. It stays visible until dismissed.
func (s *Shell) ShowError(_ context.Context, message string) {
	s.mu.Lock()
	s.stopAckLocked()
	s.notice = "error"
	s.mu.Unlock()

	fmt.Fprintf(s.out, "! %s (type /dismiss to clear)\n", message)
}

// AckComplete leaves the merge acknowledgement raised by ApplyTranscript on
// display; it self-clears on its own timer.
func (s *Shell) AckComplete(context.Context) {}

// Hide clears the status line.
func (s *Shell) Hide(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearNoticeLocked()
}

// setNotice replaces the status line and cancels a pending acknowledgement.
func (s *Shell) setNotice(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopAckLocked()
	s.notice = notice
}

// setNoticeLocked shows an acknowledgement that clears itself after the
// configured timeout. Callers hold s.mu.
func (s *Shell) setNoticeLocked(notice string) {
	s.stopAckLocked()
	s.notice = notice

	timeout := time.Duration(s.cfg.AckTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		return
	}
	s.ack = time.AfterFunc(timeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.notice == notice {
			s.notice = ""
		}
	})
}

func (s *Shell) clearNoticeLocked() {
	s.stopAckLocked()
	s.notice = ""
}

func (s *Shell) stopAckLocked() {
	if s.ack != nil {
		s.ack.Stop()
		s.ack = nil
	}
}
