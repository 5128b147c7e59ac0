//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finvox/finvox/internal/config"
)

func TestListDevicesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
}

func TestRecorderCaptureIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recorder := NewRecorder(config.Default().Audio, nil)
	session, err := recorder.Start(ctx)
	require.NoError(t, err)
	defer session.Cleanup()

	time.Sleep(500 * time.Millisecond)

	artifact, err := session.Stop(ctx)
	require.NoError(t, err)
	require.Greater(t, len(artifact.Data), wavHeaderSize)
	require.Greater(t, session.BytesCaptured(), int64(0))
}
