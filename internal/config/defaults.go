package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Transcribe: TranscribeConfig{
			URL:       "http://127.0.0.1:8000/api/transcribe",
			Model:     "whisper-1",
			Language:  "en",
			TimeoutMS: 30000,
		},
		Audio: AudioConfig{
			Input:            "default",
			Fallback:         "default",
			PreferEchoCancel: true,
		},
		Shell: ShellConfig{
			Prompt:       "draft> ",
			HistoryLimit: 500,
			AckTimeoutMS: 2000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			DesktopAppName: "finvox",
			ErrorTimeoutMS: 1600,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}
