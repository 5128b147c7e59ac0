// Package transcribe ships finalized recordings to the remote transcription
// service and normalizes every response into a single tagged outcome.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/config"
)

// Reason categorizes a transcription failure.
type Reason string

const (
	// ReasonNoSpeech means the service answered but recognized no usable text.
	ReasonNoSpeech Reason = "no_speech_detected"
	// ReasonServiceError means the service returned a non-success status.
	ReasonServiceError Reason = "service_error"
	// ReasonUnreachable means the endpoint could not be reached at all.
	ReasonUnreachable Reason = "service_unreachable"
	// ReasonUnknown covers any other unexpected failure during request/parse.
	ReasonUnknown Reason = "unknown"
)

// Failure describes one categorized transcription failure.
type Failure struct {
	Reason  Reason
	Message string
}

// Outcome is the tagged result of exactly one transcription attempt.
// Either Text is set (success) or Failure is non-nil, never both.
type Outcome struct {
	Text    string
	Failure *Failure
}

// OK reports whether the attempt produced usable text.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

func success(text string) Outcome {
	return Outcome{Text: text}
}

func fail(reason Reason, message string) Outcome {
	return Outcome{Failure: &Failure{Reason: reason, Message: message}}
}

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 1 << 20

	// Wire identity the service historically expects when an artifact does
	// not declare its own encoding.
	defaultFilename = "recording.webm"
	defaultMIME     = "audio/webm"

	unreachableMessage = "Cannot connect to transcription service. Please check your connection and try again."
)

// Client uploads audio artifacts to the configured transcription endpoint.
// Transcribe never returns a Go error: every failure mode is represented as
// a Failure outcome so callers need no defensive handling.
type Client struct {
	cfg        config.TranscribeConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a transcription client with a bounded request timeout.
func NewClient(cfg config.TranscribeConfig, logger *slog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Transcribe sends the artifact as a multipart upload and classifies the
// response. Exactly one Outcome is produced per attempt.
func (c *Client) Transcribe(ctx context.Context, artifact audio.Artifact) Outcome {
	body, contentType, err := encodeMultipart(artifact, c.cfg.Model, c.cfg.Language)
	if err != nil {
		return fail(ReasonUnknown, fmt.Sprintf("prepare upload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return fail(ReasonUnknown, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", contentType)
	if key := strings.TrimSpace(c.cfg.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logAttempt(artifact, 0, time.Since(started), err)
		return fail(ReasonUnreachable, unreachableMessage)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(ReasonUnknown, fmt.Sprintf("read response: %v", err))
	}
	c.logAttempt(artifact, resp.StatusCode, time.Since(started), nil)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(ReasonServiceError, errorMessage(resp.StatusCode, raw))
	}

	return parseTranscript(raw)
}

// parseTranscript extracts text from a success body. The text field may live
// under "text" or, for older service builds, "transcription".
func parseTranscript(raw []byte) Outcome {
	var body struct {
		Text          *string `json:"text"`
		Transcription *string `json:"transcription"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fail(ReasonUnknown, fmt.Sprintf("decode transcription response: %v", err))
	}

	var text string
	switch {
	case body.Text != nil:
		text = *body.Text
	case body.Transcription != nil:
		text = *body.Transcription
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fail(ReasonNoSpeech, "No speech detected. Please try again.")
	}
	return success(text)
}

// errorMessage derives a human-readable failure message from a non-success
// response: JSON detail field, then JSON error field, then raw body text,
// then a generic status-code message.
func errorMessage(status int, raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := strings.TrimSpace(body.Detail); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return fmt.Sprintf("Transcription failed: %d", status)
}

// encodeMultipart builds the upload body: one file part plus optional
// model/language hint fields.
func encodeMultipart(artifact audio.Artifact, model string, language string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := artifact.Filename
	if filename == "" {
		filename = defaultFilename
	}
	mimeType := artifact.MIME
	if mimeType == "" {
		mimeType = defaultMIME
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if model = strings.TrimSpace(model); model != "" {
		if err := writer.WriteField("model", model); err != nil {
			return nil, "", fmt.Errorf("write model field: %w", err)
		}
	}
	if language = strings.TrimSpace(language); language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

// logAttempt records one upload attempt when a logger is configured.
func (c *Client) logAttempt(artifact audio.Artifact, status int, elapsed time.Duration, err error) {
	if c.logger == nil {
		return
	}
	fields := []any{
		"bytes", len(artifact.Data),
		"status", status,
		"elapsed_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		c.logger.Warn("transcription request failed", append(fields, "error", err.Error())...)
		return
	}
	c.logger.Debug("transcription request complete", fields...)
}
