package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONLUnderStateHome(t *testing.T) {
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	runtime, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })

	require.Equal(t, filepath.Join(stateHome, "finvox", "log.jsonl"), runtime.Path)

	runtime.Logger.Info("capture started", "session_id", "abc123")
	require.NoError(t, runtime.Close())

	data, err := os.ReadFile(runtime.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"capture started"`)
	require.Contains(t, string(data), `"session_id":"abc123"`)
	require.True(t, strings.HasSuffix(strings.TrimRight(string(data), "\n"), "}"))
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("FINVOX_LOG_LEVEL", "debug")
	require.Equal(t, slog.LevelDebug, levelFromEnv())

	t.Setenv("FINVOX_LOG_LEVEL", "WARN")
	require.Equal(t, slog.LevelWarn, levelFromEnv())

	t.Setenv("FINVOX_LOG_LEVEL", "")
	require.Equal(t, slog.LevelInfo, levelFromEnv())
}

func TestCloseWithoutSinkIsSafe(t *testing.T) {
	require.NoError(t, Runtime{}.Close())
}
