// Package config resolves, parses, validates, and defaults finvox configuration.
package config

// Config is the fully materialized runtime configuration used by finvox.
type Config struct {
	Transcribe TranscribeConfig
	Audio      AudioConfig
	Shell      ShellConfig
	Indicator  IndicatorConfig
	Clipboard  CommandConfig
}

// TranscribeConfig controls the remote transcription endpoint and request hints.
type TranscribeConfig struct {
	URL       string
	APIKey    string
	Model     string
	Language  string
	TimeoutMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input            string
	Fallback         string
	PreferEchoCancel bool
}

// ShellConfig controls the interactive draft shell.
type ShellConfig struct {
	Prompt       string
	HistoryLimit int
	AckTimeoutMS int
}

// IndicatorConfig controls desktop-notification feedback in headless mode.
type IndicatorConfig struct {
	Enable         bool
	DesktopAppName string
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
