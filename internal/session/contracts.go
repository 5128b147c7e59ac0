// Package session coordinates the voice input lifecycle: capture, transcription,
// and transcript commit, gated by the dictation state machine.
package session

import (
	"context"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/transcribe"
)

// Capture is one live microphone session owned by the coordinator.
// *audio.Session satisfies it.
type Capture interface {
	ID() string
	Device() audio.Device
	BytesCaptured() int64
	Stop(context.Context) (audio.Artifact, error)
	Cleanup()
}

// Recorder acquires the microphone and opens one capture session.
type Recorder interface {
	Start(context.Context) (Capture, error)
}

// RecorderFunc adapts a capture-start function to the Recorder interface.
type RecorderFunc func(context.Context) (Capture, error)

func (f RecorderFunc) Start(ctx context.Context) (Capture, error) {
	return f(ctx)
}

// Transcriber converts a finalized recording into a transcription outcome.
type Transcriber interface {
	Transcribe(context.Context, audio.Artifact) transcribe.Outcome
}

// placeholderTranscriber fails every attempt; used when no client is wired.
type placeholderTranscriber struct{}

func (placeholderTranscriber) Transcribe(context.Context, audio.Artifact) transcribe.Outcome {
	return transcribe.Outcome{Failure: &transcribe.Failure{
		Reason:  transcribe.ReasonUnknown,
		Message: "transcription client not configured",
	}}
}

// Committer delivers a successful transcript to its destination: the draft
// shell in chat mode, the clipboard in headless mode.
type Committer interface {
	Commit(context.Context, string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, string) error

func (f CommitFunc) Commit(ctx context.Context, transcript string) error {
	return f(ctx, transcript)
}

// Feedback surfaces lifecycle status to the user while an operation runs.
// AckComplete replaces Hide on the success path so a transient completion
// notice can outlive the transcribing banner.
type Feedback interface {
	ShowRecording(ctx context.Context, device string)
	ShowTranscribing(ctx context.Context)
	ShowError(ctx context.Context, message string)
	AckComplete(ctx context.Context)
	Hide(ctx context.Context)
}

// noopFeedback preserves coordinator flow when no feedback surface is wired.
type noopFeedback struct{}

func (noopFeedback) ShowRecording(context.Context, string) {}
func (noopFeedback) ShowTranscribing(context.Context)      {}
func (noopFeedback) ShowError(context.Context, string)     {}
func (noopFeedback) AckComplete(context.Context)           {}
func (noopFeedback) Hide(context.Context)                  {}
