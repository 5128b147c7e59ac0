// Package app wires configuration, logging, and the voice pipeline behind
// the finvox command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/finvox/finvox/internal/audio"
	"github.com/finvox/finvox/internal/cli"
	"github.com/finvox/finvox/internal/config"
	"github.com/finvox/finvox/internal/doctor"
	"github.com/finvox/finvox/internal/fsm"
	"github.com/finvox/finvox/internal/indicator"
	"github.com/finvox/finvox/internal/ipc"
	"github.com/finvox/finvox/internal/logging"
	"github.com/finvox/finvox/internal/output"
	"github.com/finvox/finvox/internal/session"
	"github.com/finvox/finvox/internal/shell"
	"github.com/finvox/finvox/internal/transcribe"
	"github.com/finvox/finvox/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("finvox"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("finvox"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	// A local .env may carry FINVOX_API_KEY; absence is fine.
	_ = godotenv.Load()

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandChat:
		return r.commandChat(ctx, cfgLoaded.Config, logger)
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, logger)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// newCoordinator assembles the capture/transcribe pipeline around the given
// commit and feedback surfaces.
func newCoordinator(cfg config.Config, logger *slog.Logger, committer session.Committer, feedback session.Feedback) *session.Coordinator {
	recorder := audio.NewRecorder(cfg.Audio, logger)
	start := session.RecorderFunc(func(ctx context.Context) (session.Capture, error) {
		return recorder.Start(ctx)
	})
	client := transcribe.NewClient(cfg.Transcribe, logger)
	return session.NewCoordinator(logger, start, client, committer, feedback)
}

// commandChat runs the interactive draft shell. The shell is both the commit
// target and the feedback surface for voice input.
func (r Runner) commandChat(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	sh := shell.NewShell(cfg.Shell, r.Stdout, logger)
	coord := newCoordinator(cfg, logger, sh, sh)

	repl := shell.NewREPL(sh, coord, cfg.Shell)
	if err := repl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// commandToggle either forwards to a running owner session or becomes the
// owner: start recording, serve IPC, and commit to the clipboard on stop.
func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, "toggle")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, "toggle")
			if forwardErr != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", forwardErr)
				return 1
			}
			if resp.Message != "" {
				fmt.Fprintln(r.Stdout, resp.Message)
			}
			return 0
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	clipboard := output.NewClipboard(cfg.Clipboard, logger)
	desktop := indicator.NewDesktop(cfg.Indicator, logger)
	coord := newCoordinator(cfg, logger, clipboard, desktop)
	defer coord.Close(context.Background())

	actions := make(chan struct{}, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, ownerHandler(coord, actions))
	}()

	if err := coord.Start(ctx); err != nil {
		serverCancel()
		<-serverErrCh
		fmt.Fprintf(r.Stderr, "error: %s\n", coord.LastError())
		return 1
	}

	var exit int
	select {
	case <-ctx.Done():
		fmt.Fprintln(r.Stdout, "cancelled")
	case <-actions:
		transcript, err := coord.Stop(ctx)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %s\n", coord.LastError())
			exit = 1
		} else if strings.TrimSpace(transcript) != "" {
			fmt.Fprintln(r.Stdout, strings.TrimSpace(transcript))
		}
	}

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	return exit
}

// ownerHandler serves IPC commands against the owner's coordinator. Stop
// requests are queued for the owner loop rather than executed inline so the
// transcript is committed exactly once, by the owner.
func ownerHandler(coord *session.Coordinator, actions chan struct{}) ipc.HandlerFunc {
	return func(ctx context.Context, req ipc.Request) ipc.Response {
		state := string(coord.State())
		switch req.Command {
		case "status":
			resp := ipc.Response{OK: true, State: state}
			if msg := coord.LastError(); msg != "" {
				resp.Message = msg
			}
			return resp
		case "toggle", "stop":
			if coord.State() != fsm.StateRecording {
				return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("cannot stop from state %s", state)}
			}
			select {
			case actions <- struct{}{}:
				return ipc.Response{OK: true, State: state, Message: "stop requested"}
			default:
				return ipc.Response{OK: true, State: state, Message: "stop already requested"}
			}
		case "clear-error":
			coord.ClearError(ctx)
			return ipc.Response{OK: true, State: string(coord.State()), Message: "error cleared"}
		default:
			return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("unknown command: %s", req.Command)}
		}
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, "status")
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		if resp.Message != "" {
			fmt.Fprintln(r.Stdout, resp.Message)
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active finvox session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// tryForward sends a command to a possibly running owner. handled=false
// means no owner is listening; the caller decides what that implies.
func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
