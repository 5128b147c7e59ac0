package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/finvox/finvox/internal/config"
	"github.com/finvox/finvox/internal/fsm"
)

// VoiceControl is the REPL-facing subset of the session coordinator.
type VoiceControl interface {
	Start(context.Context) error
	Stop(context.Context) (string, error)
	ClearError(context.Context)
	State() fsm.State
	LastError() string
	Close(context.Context)
}

// REPL drives the interactive chat loop: typed lines edit the draft, slash
// commands control the voice lifecycle.
type REPL struct {
	shell *Shell
	voice VoiceControl
	cfg   config.ShellConfig
}

// NewREPL constructs the interactive loop around an existing draft shell.
func NewREPL(shell *Shell, voice VoiceControl, cfg config.ShellConfig) *REPL {
	return &REPL{shell: shell, voice: voice, cfg: cfg}
}

// Run reads lines until /quit or EOF. Ctrl+C clears the current line,
// Ctrl+D exits.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.cfg.Prompt,
		HistoryLimit:    r.cfg.HistoryLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()
	defer r.voice.Close(context.Background())

	fmt.Fprintln(r.shell.out, "finvox chat. Type /voice to dictate, /help for commands.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if r.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute handles one input line and reports whether the loop should exit.
func (r *REPL) Execute(ctx context.Context, line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if !strings.HasPrefix(trimmed, "/") {
		// Typed input replaces the draft wholesale.
		r.shell.SetBuffer(trimmed)
		return false
	}

	command, _, _ := strings.Cut(trimmed, " ")
	switch command {
	case "/voice", "/v":
		r.toggleVoice(ctx)
	case "/dismiss":
		r.voice.ClearError(ctx)
		fmt.Fprintln(r.shell.out, "error dismissed")
	case "/show":
		r.showDraft()
	case "/clear":
		r.shell.Clear()
		fmt.Fprintln(r.shell.out, "draft cleared")
	case "/status":
		fmt.Fprintf(r.shell.out, "state: %s\n", r.voice.State())
		if msg := r.voice.LastError(); msg != "" {
			fmt.Fprintf(r.shell.out, "error: %s\n", msg)
		}
	case "/help", "/?":
		fmt.Fprint(r.shell.out, replHelp)
	case "/quit", "/exit", "/q":
		return true
	default:
		fmt.Fprintf(r.shell.out, "unknown command: %s (try /help)\n", command)
	}
	return false
}

// toggleVoice starts dictation when idle and stops it when recording.
func (r *REPL) toggleVoice(ctx context.Context) {
	switch r.voice.State() {
	case fsm.StateRecording:
		// Errors surface through the shell's Feedback hooks.
		_, _ = r.voice.Stop(ctx)
	case fsm.StateTranscribing:
		fmt.Fprintln(r.shell.out, "still transcribing, hold on")
	default:
		_ = r.voice.Start(ctx)
	}
}

func (r *REPL) showDraft() {
	draft := r.shell.Buffer()
	if draft == "" {
		fmt.Fprintln(r.shell.out, "draft is empty")
		return
	}
	fmt.Fprintf(r.shell.out, "draft: %s\n", draft)
}

const replHelp = `commands:
  /voice    start or stop dictation
  /dismiss  clear a displayed error
  /show     print the current draft
  /clear    empty the draft
  /status   show the voice lifecycle state
  /quit     exit
anything else replaces the draft text.
`
