package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/finvox/finvox/internal/config"
)

const (
	sampleRate = 44100
	channels   = 1
	// chunkSizeBytes is 100ms of 44.1kHz mono s16 PCM, the fixed fragment
	// cadence buffered into the session while recording.
	chunkSizeBytes = sampleRate * 2 / 10
)

// Recorder opens capture sessions against the configured input source.
type Recorder struct {
	cfg    config.AudioConfig
	logger *slog.Logger
}

// NewRecorder constructs a session recorder from audio config.
func NewRecorder(cfg config.AudioConfig, logger *slog.Logger) *Recorder {
	return &Recorder{cfg: cfg, logger: logger}
}

// Start acquires the input device and begins buffering 100ms PCM fragments.
// On any failure no resources are retained. Failure classes: permission
// refusal (ErrPermissionDenied), missing device (ErrNoInputDevice), and
// generic device errors for everything else.
func (r *Recorder) Start(ctx context.Context) (*Session, error) {
	selection, err := SelectDevice(ctx, r.cfg)
	if err != nil {
		return nil, classifyAcquireError(err)
	}
	if selection.Warning != "" && r.logger != nil {
		r.logger.Warn(selection.Warning)
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("finvox"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, classifyAcquireError(fmt.Errorf("connect audio server: %w", err))
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return nil, classifyAcquireError(fmt.Errorf("resolve source %q: %w", selection.Device.ID, err))
	}

	session := &Session{
		id:     uuid.NewString(),
		device: selection.Device,
		client: client,
	}

	writer := pulse.NewWriter(writerFunc(session.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(chunkSizeBytes),
		pulse.RecordMediaName("finvox voice input"),
	)
	if err != nil {
		client.Close()
		return nil, classifyAcquireError(fmt.Errorf("create record stream: %w", err))
	}

	session.stream = stream
	stream.Start()

	if r.logger != nil {
		r.logger.Info("capture session started",
			"session_id", session.id,
			"device", selection.Device.ID,
			"sample_rate", sampleRate,
		)
	}
	return session, nil
}

// Session is one recording attempt: it exclusively owns the device stream
// and recorder handle from acquisition until Stop or Cleanup releases them.
type Session struct {
	id     string
	device Device

	client *pulse.Client
	stream *pulse.RecordStream

	mu       sync.Mutex
	pending  []byte
	chunks   [][]byte
	stopped  bool
	artifact *Artifact

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

// ID returns the session correlation id used in logs.
func (s *Session) ID() string {
	return s.id
}

// Device returns capture metadata for logging and diagnostics.
func (s *Session) Device() Device {
	return s.device
}

// BytesCaptured reports total PCM bytes accepted from the device stream.
func (s *Session) BytesCaptured() int64 {
	return s.bytes.Load()
}

// Stop finalizes the buffered fragments into a single WAV artifact and
// releases the device stream and recorder handle. It is idempotent: later
// calls return the artifact produced by the first. The release happens on
// every path, including when no audio was captured.
func (s *Session) Stop(_ context.Context) (Artifact, error) {
	s.mu.Lock()
	if s.stopped {
		artifact := s.artifact
		s.mu.Unlock()
		if artifact == nil {
			return Artifact{}, errors.New("capture session already cleaned up")
		}
		return *artifact, nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.release()
	s.inflight.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) > 0 {
		tail := make([]byte, len(s.pending))
		copy(tail, s.pending)
		s.pending = nil
		s.chunks = append(s.chunks, tail)
	}

	total := 0
	for _, chunk := range s.chunks {
		total += len(chunk)
	}
	pcm := make([]byte, 0, total)
	for _, chunk := range s.chunks {
		pcm = append(pcm, chunk...)
	}
	s.chunks = nil

	artifact := NewWAVArtifact(pcm, sampleRate, channels)
	s.artifact = &artifact
	return artifact, nil
}

// Cleanup releases the device stream and recorder handle unconditionally and
// discards buffered audio. It is idempotent, safe to call when nothing is
// held, and never fails on redundant release.
func (s *Session) Cleanup() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.release()
	s.inflight.Wait()

	s.mu.Lock()
	s.pending = nil
	s.chunks = nil
	s.mu.Unlock()
}

// release tears down the stream and client exactly once. Callers must have
// claimed the stopped flag first.
func (s *Session) release() {
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
}

// onPCM receives raw Pulse frames and appends fixed-size fragments to the
// session buffer in arrival order.
func (s *Session) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as s.stopped to avoid Add/Wait races.
	s.inflight.Add(1)

	s.pending = append(s.pending, buffer...)
	for len(s.pending) >= chunkSizeBytes {
		chunk := make([]byte, chunkSizeBytes)
		copy(chunk, s.pending[:chunkSizeBytes])
		s.pending = s.pending[chunkSizeBytes:]
		s.chunks = append(s.chunks, chunk)
	}
	s.mu.Unlock()
	defer s.inflight.Done()

	s.bytes.Add(int64(len(buffer)))
	return len(buffer), nil
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// DescribeDevice formats device metadata for logs and diagnostics.
func DescribeDevice(device Device) string {
	description := device.Description
	if description == "" {
		return device.ID
	}
	if device.ID == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, device.ID)
}
