package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig is the TOML-facing schema. Absent keys keep their prefilled
// default values because toml.Decode only touches keys present in the document.
type fileConfig struct {
	Transcribe struct {
		URL       string `toml:"url"`
		APIKey    string `toml:"api_key"`
		Model     string `toml:"model"`
		Language  string `toml:"language"`
		TimeoutMS int    `toml:"timeout_ms"`
	} `toml:"transcribe"`
	Audio struct {
		Input            string `toml:"input"`
		Fallback         string `toml:"fallback"`
		PreferEchoCancel bool   `toml:"prefer_echo_cancel"`
	} `toml:"audio"`
	Shell struct {
		Prompt       string `toml:"prompt"`
		HistoryLimit int    `toml:"history_limit"`
		AckTimeoutMS int    `toml:"ack_timeout_ms"`
	} `toml:"shell"`
	Indicator struct {
		Enable         bool   `toml:"enable"`
		DesktopAppName string `toml:"desktop_app_name"`
		ErrorTimeoutMS int    `toml:"error_timeout_ms"`
	} `toml:"indicator"`
	ClipboardCmd string `toml:"clipboard_cmd"`
}

// Load resolves, reads, parses, and validates the runtime configuration.
// Environment overrides (FINVOX_TRANSCRIBE_URL, FINVOX_API_KEY) are applied
// after file values so deployment env always wins.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := applyEnv(base)
			warnings, verr := Validate(cfg)
			if verr != nil {
				return Loaded{}, verr
			}
			warnings = append([]Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}, warnings...)
			return Loaded{Path: resolvedPath, Config: cfg, Warnings: warnings, Exists: false}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	cfg = applyEnv(cfg)

	validateWarnings, err := Validate(cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}
	warnings = append(warnings, validateWarnings...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Parse decodes TOML content over a base configuration.
func Parse(content string, base Config) (Config, []Warning, error) {
	var file fileConfig
	file.Transcribe.URL = base.Transcribe.URL
	file.Transcribe.APIKey = base.Transcribe.APIKey
	file.Transcribe.Model = base.Transcribe.Model
	file.Transcribe.Language = base.Transcribe.Language
	file.Transcribe.TimeoutMS = base.Transcribe.TimeoutMS
	file.Audio.Input = base.Audio.Input
	file.Audio.Fallback = base.Audio.Fallback
	file.Audio.PreferEchoCancel = base.Audio.PreferEchoCancel
	file.Shell.Prompt = base.Shell.Prompt
	file.Shell.HistoryLimit = base.Shell.HistoryLimit
	file.Shell.AckTimeoutMS = base.Shell.AckTimeoutMS
	file.Indicator.Enable = base.Indicator.Enable
	file.Indicator.DesktopAppName = base.Indicator.DesktopAppName
	file.Indicator.ErrorTimeoutMS = base.Indicator.ErrorTimeoutMS
	file.ClipboardCmd = base.Clipboard.Raw

	meta, err := toml.Decode(content, &file)
	if err != nil {
		return Config{}, nil, err
	}

	warnings := make([]Warning, 0)
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("unknown config key %q ignored", key.String())})
	}

	clipboardArgv, err := parseArgv(file.ClipboardCmd)
	if err != nil {
		return Config{}, nil, fmt.Errorf("clipboard_cmd: %w", err)
	}

	cfg := Config{
		Transcribe: TranscribeConfig{
			URL:       file.Transcribe.URL,
			APIKey:    file.Transcribe.APIKey,
			Model:     file.Transcribe.Model,
			Language:  file.Transcribe.Language,
			TimeoutMS: file.Transcribe.TimeoutMS,
		},
		Audio: AudioConfig{
			Input:            file.Audio.Input,
			Fallback:         file.Audio.Fallback,
			PreferEchoCancel: file.Audio.PreferEchoCancel,
		},
		Shell: ShellConfig{
			Prompt:       file.Shell.Prompt,
			HistoryLimit: file.Shell.HistoryLimit,
			AckTimeoutMS: file.Shell.AckTimeoutMS,
		},
		Indicator: IndicatorConfig{
			Enable:         file.Indicator.Enable,
			DesktopAppName: file.Indicator.DesktopAppName,
			ErrorTimeoutMS: file.Indicator.ErrorTimeoutMS,
		},
		Clipboard: CommandConfig{Raw: file.ClipboardCmd, Argv: clipboardArgv},
	}

	return cfg, warnings, nil
}

// applyEnv overlays process environment overrides onto the configuration.
func applyEnv(cfg Config) Config {
	if url := strings.TrimSpace(os.Getenv("FINVOX_TRANSCRIBE_URL")); url != "" {
		cfg.Transcribe.URL = url
	}
	if key := strings.TrimSpace(os.Getenv("FINVOX_API_KEY")); key != "" {
		cfg.Transcribe.APIKey = key
	}
	return cfg
}
