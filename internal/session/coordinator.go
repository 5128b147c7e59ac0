package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/fsm"
)

// ErrNotRecording is returned by Stop when no capture session is active.
var ErrNotRecording = errors.New("no recording in progress")

// Coordinator owns the voice input lifecycle. Operations are serialized:
// a Start or Stop runs to completion before the next one is admitted, so
// rapid toggling can never interleave capture and transcription.
type Coordinator struct {
	logger     *slog.Logger
	recorder   Recorder
	transcribe Transcriber
	commit     Committer
	feedback   Feedback

	// opMu serializes Start/Stop/ClearError/Close end to end. stateMu only
	// guards the state snapshot so State() stays cheap for status queries.
	opMu    sync.Mutex
	stateMu sync.RWMutex
	state   fsm.State

	capture   Capture
	lastError string
}

// NewCoordinator constructs a coordinator with safe default fallbacks for
// every collaborator except the recorder.
func NewCoordinator(
	logger *slog.Logger,
	recorder Recorder,
	transcriber Transcriber,
	committer Committer,
	feedback Feedback,
) *Coordinator {
	if transcriber == nil {
		transcriber = placeholderTranscriber{}
	}
	if committer == nil {
		committer = CommitFunc(func(context.Context, string) error { return nil })
	}
	if feedback == nil {
		feedback = noopFeedback{}
	}

	return &Coordinator{
		logger:     logger,
		recorder:   recorder,
		transcribe: transcriber,
		commit:     committer,
		feedback:   feedback,
		state:      fsm.StateIdle,
	}
}

// State returns the current lifecycle state snapshot.
func (c *Coordinator) State() fsm.State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// LastError returns the message of the failure currently on display, or ""
// when the coordinator is not in the error state.
func (c *Coordinator) LastError() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastError
}

// Start begins a new capture session. A Start while already recording or
// transcribing is a no-op; a Start from the error state first dismisses the
// displayed failure and then proceeds.
func (c *Coordinator) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.State() {
	case fsm.StateRecording, fsm.StateTranscribing:
		return nil
	case fsm.StateError:
		c.dismissLocked(ctx)
	}

	capture, err := c.recorder.Start(ctx)
	if err != nil {
		c.failWith(ctx, acquireMessage(err))
		return err
	}

	if err := c.transition(fsm.EventStart); err != nil {
		capture.Cleanup()
		c.failWith(ctx, err.Error())
		return err
	}
	c.capture = capture

	device := audio.DescribeDevice(capture.Device())
	c.feedback.ShowRecording(ctx, device)
	if c.logger != nil {
		c.logger.Info("recording started", "session_id", capture.ID(), "device", device)
	}
	return nil
}

// Stop finalizes the active capture, transcribes it, and commits the
// resulting text. The transcript is returned to the caller as well. A Stop
// with no recording in progress returns ErrNotRecording and changes nothing.
func (c *Coordinator) Stop(ctx context.Context) (string, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() != fsm.StateRecording || c.capture == nil {
		return "", ErrNotRecording
	}

	capture := c.capture
	c.capture = nil
	defer capture.Cleanup()

	if err := c.transition(fsm.EventStop); err != nil {
		c.failWith(ctx, err.Error())
		return "", err
	}
	c.feedback.ShowTranscribing(ctx)

	started := time.Now()
	artifact, err := capture.Stop(ctx)
	if err != nil {
		c.failWith(ctx, fmt.Sprintf("Recording failed: %v", err))
		return "", err
	}

	outcome := c.transcribe.Transcribe(ctx, artifact)
	if !outcome.OK() {
		c.failWith(ctx, outcome.Failure.Message)
		return "", errors.New(outcome.Failure.Message)
	}

	if err := c.commit.Commit(ctx, outcome.Text); err != nil {
		c.failWith(ctx, fmt.Sprintf("Could not deliver transcript: %v", err))
		return "", err
	}

	if err := c.transition(fsm.EventTranscribed); err != nil {
		c.failWith(ctx, err.Error())
		return "", err
	}
	c.feedback.AckComplete(ctx)

	if c.logger != nil {
		c.logger.Info("transcript committed",
			"session_id", capture.ID(),
			"device", audio.DescribeDevice(capture.Device()),
			"bytes", capture.BytesCaptured(),
			"chars", len(outcome.Text),
			"elapsed_ms", time.Since(started).Milliseconds(),
		)
	}
	return outcome.Text, nil
}

// ClearError dismisses a displayed failure and returns to idle. It is a
// no-op outside the error state.
func (c *Coordinator) ClearError(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() != fsm.StateError {
		return
	}
	c.dismissLocked(ctx)
}

// Close releases any live capture and forces the coordinator back to idle.
func (c *Coordinator) Close(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.capture != nil {
		c.capture.Cleanup()
		c.capture = nil
	}

	c.stateMu.Lock()
	c.state, _ = fsm.Transition(c.state, fsm.EventTeardown)
	c.lastError = ""
	c.stateMu.Unlock()

	c.feedback.Hide(ctx)
}

// transition applies one event to the lifecycle state.
func (c *Coordinator) transition(event fsm.Event) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// failWith moves to the error state and surfaces the message. The error
// remains on display until the user dismisses it or starts a new recording.
func (c *Coordinator) failWith(ctx context.Context, message string) {
	c.stateMu.Lock()
	c.state, _ = fsm.Transition(c.state, fsm.EventFail)
	c.lastError = message
	c.stateMu.Unlock()

	c.feedback.ShowError(ctx, message)
	if c.logger != nil {
		c.logger.Warn("voice input failed", "error", message)
	}
}

// dismissLocked clears the error state; callers hold opMu.
func (c *Coordinator) dismissLocked(ctx context.Context) {
	c.stateMu.Lock()
	next, err := fsm.Transition(c.state, fsm.EventDismiss)
	if err == nil {
		c.state = next
	}
	c.lastError = ""
	c.stateMu.Unlock()

	c.feedback.Hide(ctx)
}

// acquireMessage maps microphone acquisition failures to user-facing text.
func acquireMessage(err error) string {
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return "Microphone permission denied. Please allow microphone access and try again."
	case errors.Is(err, audio.ErrNoInputDevice):
		return "No microphone detected. Please connect a microphone and try again."
	default:
		return fmt.Sprintf("Microphone error: %v", err)
	}
}
