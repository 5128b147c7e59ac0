// Package doctor runs readiness diagnostics for config, audio capture,
// the transcription service, and commit tooling.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/config"
	"github.com/finvox/finvox/internal/transcribe"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{checkConfig(cfg)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR",
		"runtime dir available for the session socket",
		"XDG_RUNTIME_DIR is empty; headless toggle mode will not work"))

	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkTranscribeHealth(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkConfig reports the resolved config path and any load warnings.
func checkConfig(cfg config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("no file at %q, using defaults", cfg.Path)
	}
	if n := len(cfg.Warnings); n > 0 {
		message = fmt.Sprintf("%s (%d warning(s))", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates that an environment variable is non-empty.
func checkEnv(name, okMsg, failMsg string) Check {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv starts with a runnable binary.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", argv[0])}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("found at %s", path)}
}

// checkAudioSelection runs live device selection to surface fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkTranscribeHealth probes the transcription service health endpoint.
func checkTranscribeHealth(ctx context.Context, cfg config.Config) Check {
	probeCfg := cfg.Transcribe
	probeCfg.TimeoutMS = 2000

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report, err := transcribe.NewClient(probeCfg, nil).Health(probeCtx)
	if err != nil {
		return Check{Name: "transcribe.health", Pass: false, Message: err.Error()}
	}
	if !report.Healthy() {
		message := fmt.Sprintf("service reports %q", report.Status)
		if report.Error != "" {
			message = message + ": " + report.Error
		}
		return Check{Name: "transcribe.health", Pass: false, Message: message}
	}

	message := "service is healthy"
	if report.Provider != "" {
		message = fmt.Sprintf("service is healthy (provider %s)", report.Provider)
	}
	return Check{Name: "transcribe.health", Pass: true, Message: message}
}
