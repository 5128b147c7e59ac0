// Package indicator surfaces voice lifecycle state as desktop notifications.
// Headless toggle mode has no shell to print to, so banners go over DBus.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/finvox/finvox/internal/config"
)

// Desktop shows a single replaceable freedesktop notification that tracks
// the voice lifecycle. It satisfies the session Feedback contract.
type Desktop struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger

	mu             sync.Mutex
	notificationID uint32
}

// NewDesktop creates a desktop indicator from config.
func NewDesktop(cfg config.IndicatorConfig, logger *slog.Logger) *Desktop {
	return &Desktop{cfg: cfg, logger: logger}
}

// ShowRecording announces an active capture session.
func (d *Desktop) ShowRecording(ctx context.Context, device string) {
	text := "Recording..."
	if device != "" {
		text = fmt.Sprintf("Recording from %s", device)
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, 300000, text)
	})
}

// ShowTranscribing announces the post-capture transcription phase.
func (d *Desktop) ShowTranscribing(ctx context.Context) {
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, 300000, "Transcribing...")
	})
}

// ShowError displays a failure banner with a bounded on-screen timeout.
func (d *Desktop) ShowError(ctx context.Context, text string) {
	if text == "" {
		text = "Voice input failed"
	}
	timeout := d.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 5000
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, timeout, text)
	})
}

// AckComplete shows a short-lived completion notice in place of the
// transcribing banner.
func (d *Desktop) AckComplete(ctx context.Context) {
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, 2000, "Transcript copied to clipboard")
	})
}

// Hide dismisses the active notification.
func (d *Desktop) Hide(ctx context.Context) {
	d.run(ctx, d.dismiss)
}

// notify sends a replaceable desktop notification and stores its ID.
func (d *Desktop) notify(ctx context.Context, timeoutMS int, text string) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.DesktopAppName)
	if appName == "" {
		appName = "finvox"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (d *Desktop) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout. Indicator
// failures never disturb the voice lifecycle; they are logged and dropped.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	if !d.cfg.Enable {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("indicator dispatch failed", err)
	}
}

// log emits debug-only indicator failures to the runtime logger.
func (d *Desktop) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
