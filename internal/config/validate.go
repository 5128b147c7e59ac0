package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Transcribe.URL)
	if endpoint == "" {
		return nil, fmt.Errorf("transcribe.url must not be empty")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transcribe.url is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("transcribe.url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("transcribe.url must include a host")
	}
	if cfg.Transcribe.TimeoutMS <= 0 {
		return nil, fmt.Errorf("transcribe.timeout_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Transcribe.Language) == "" {
		warnings = append(warnings, Warning{Message: "transcribe.language is empty; service will auto-detect"})
	}

	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty")
	}

	if cfg.Shell.AckTimeoutMS < 0 {
		return nil, fmt.Errorf("shell.ack_timeout_ms must be >= 0")
	}
	if cfg.Shell.HistoryLimit < 0 {
		return nil, fmt.Errorf("shell.history_limit must be >= 0")
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	return warnings, nil
}
