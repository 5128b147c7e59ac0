// Package output delivers committed transcripts to the system clipboard.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/finvox/finvox/internal/config"
)

// Clipboard commits transcripts by piping them to the configured
// clipboard helper (wl-copy by default).
type Clipboard struct {
	config config.CommandConfig
	logger *slog.Logger
}

// NewClipboard constructs a clipboard committer from runtime config.
func NewClipboard(cfg config.CommandConfig, logger *slog.Logger) *Clipboard {
	return &Clipboard{config: cfg, logger: logger}
}

// Commit writes transcript text to the clipboard. Empty text is skipped.
func (c *Clipboard) Commit(ctx context.Context, transcript string) error {
	if transcript == "" {
		return nil
	}

	clipCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipCtx, c.config.Argv, transcript); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("transcript copied to clipboard", "chars", len(transcript))
	}
	return nil
}

// runCommandWithInput executes argv and writes input to its stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
