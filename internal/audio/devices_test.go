package audio

import (
	"context"
	"errors"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"

	"github.com/finvox/finvox/internal/config"
)

func audioCfg(input, fallback string, echoCancel bool) config.AudioConfig {
	return config.AudioConfig{Input: input, Fallback: fallback, PreferEchoCancel: echoCancel}
}

func TestSelectFromListDefaultPicksDefaultSource(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "webcam", Description: "Webcam Mic", Available: true},
	}

	selection, err := selectFromList(devices, audioCfg("default", "default", false))
	require.NoError(t, err)
	require.Equal(t, "yeti", selection.Device.ID)
	require.Empty(t, selection.Warning)
}

func TestSelectFromListPrefersEchoCancelSource(t *testing.T) {
	devices := []Device{
		{ID: "alsa_input.usb-yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "echo-cancel-source", Description: "Echo-Cancel Source", Available: true},
	}

	selection, err := selectFromList(devices, audioCfg("default", "default", true))
	require.NoError(t, err)
	require.Equal(t, "echo-cancel-source", selection.Device.ID)
	require.Contains(t, selection.Warning, "echo-cancel")
}

func TestSelectFromListSkipsMutedEchoCancelSource(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "echo-cancel-source", Description: "Echo-Cancel Source", Available: true, Muted: true},
	}

	selection, err := selectFromList(devices, audioCfg("default", "default", true))
	require.NoError(t, err)
	require.Equal(t, "yeti", selection.Device.ID)
}

func TestSelectFromListExplicitInputMatch(t *testing.T) {
	devices := []Device{
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
		{ID: "alsa_input.usb-wave3", Description: "Elgato Wave 3", Available: true},
	}

	selection, err := selectFromList(devices, audioCfg("wave 3", "default", true))
	require.NoError(t, err)
	require.Equal(t, "alsa_input.usb-wave3", selection.Device.ID)
}

func TestSelectFromListMutedPrimaryFallsBack(t *testing.T) {
	devices := []Device{
		{ID: "wave3", Description: "Elgato Wave 3", Available: true, Muted: true},
		{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true},
	}

	selection, err := selectFromList(devices, audioCfg("wave3", "yeti", false))
	require.NoError(t, err)
	require.Equal(t, "yeti", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "yeti", Description: "Blue Yeti", Available: true, Default: true}}

	_, err := selectFromList(devices, audioCfg("missing", "default", false))
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")
}

func TestSelectFromListNoDevices(t *testing.T) {
	_, err := selectFromList(nil, audioCfg("default", "default", true))
	require.ErrorIs(t, err, ErrNoInputDevice)
}

func TestSelectFromListMutedDefaultFails(t *testing.T) {
	devices := []Device{{ID: "yeti", Description: "Blue Yeti", Available: true, Muted: true, Default: true}}

	_, err := selectFromList(devices, audioCfg("default", "default", false))
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-wave3", Description: "Elgato Wave 3"}
	require.True(t, deviceMatches(dev, "wave3"))
	require.True(t, deviceMatches(dev, "elgato"))
	require.False(t, deviceMatches(dev, "missing"))
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(7)", sourceStateString(7))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{})) // no ports => available

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	notAvailable := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, notAvailable, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(notAvailable))
}

func TestClassifyAcquireError(t *testing.T) {
	require.NoError(t, classifyAcquireError(nil))

	err := classifyAcquireError(errors.New("pulseaudio: Access denied"))
	require.ErrorIs(t, err, ErrPermissionDenied)

	err = classifyAcquireError(errors.New("pulseaudio: No such entity"))
	require.ErrorIs(t, err, ErrNoInputDevice)

	plain := classifyAcquireError(errors.New("connection refused"))
	require.NotErrorIs(t, plain, ErrPermissionDenied)
	require.NotErrorIs(t, plain, ErrNoInputDevice)
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))

	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}

	replyValue := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	replyValue.Set(sliceValue)
}
