// Package audio handles input-device discovery, selection, and capture sessions.
package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"

	"github.com/finvox/finvox/internal/config"
)

// Device describes one Pulse input source surfaced to finvox.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns available Pulse input sources with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("finvox"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, classifyAcquireError(fmt.Errorf("connect audio server: %w", err))
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves configured input preferences against live devices.
func SelectDevice(ctx context.Context, cfg config.AudioConfig) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectFromList(devices, cfg)
}

// selectFromList applies selection policy to a pre-fetched device list.
// With input=default the policy prefers an echo-cancel processed source when
// one is usable, which is how PulseAudio exposes echo cancellation and noise
// suppression for capture.
func selectFromList(devices []Device, cfg config.AudioConfig) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, ErrNoInputDevice
	}

	input := strings.TrimSpace(strings.ToLower(cfg.Input))
	fallback := strings.TrimSpace(strings.ToLower(cfg.Fallback))

	var defaultDevice *Device
	for i := range devices {
		if devices[i].Default {
			defaultDevice = &devices[i]
		}
	}

	if input == "" || input == "default" {
		if cfg.PreferEchoCancel {
			if processed := findEchoCancelSource(devices); processed != nil {
				return Selection{
					Device:  *processed,
					Warning: fmt.Sprintf("using echo-cancel source %q", processed.ID),
				}, nil
			}
		}
		if defaultDevice == nil {
			return Selection{}, fmt.Errorf("default audio source is unavailable")
		}
		if err := usable(*defaultDevice); err != nil {
			return Selection{}, fmt.Errorf("default source %q: %w", defaultDevice.ID, err)
		}
		return Selection{Device: *defaultDevice}, nil
	}

	primary := findMatch(devices, input)
	if primary == nil {
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", input)
	}
	if err := usable(*primary); err == nil {
		return Selection{Device: *primary}, nil
	}

	primaryReason := "unavailable"
	if primary.Muted {
		primaryReason = "muted"
	}

	var fallbackDevice *Device
	if fallback != "" && fallback != "default" {
		fallbackDevice = findMatch(devices, fallback)
		if fallbackDevice == nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, primaryReason, fallback)
		}
	} else {
		if defaultDevice == nil {
			return Selection{}, fmt.Errorf("primary input %q is %s and no default fallback exists", primary.ID, primaryReason)
		}
		fallbackDevice = defaultDevice
	}

	if err := usable(*fallbackDevice); err != nil {
		return Selection{}, fmt.Errorf("fallback device %q: %w", fallbackDevice.ID, err)
	}

	return Selection{
		Device:   *fallbackDevice,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, primaryReason, fallbackDevice.ID),
		Fallback: primary.ID != fallbackDevice.ID,
	}, nil
}

// findEchoCancelSource returns the first usable echo-cancel processed source.
func findEchoCancelSource(devices []Device) *Device {
	for i := range devices {
		dev := &devices[i]
		id := strings.ToLower(dev.ID)
		if !strings.Contains(id, "echo-cancel") && !strings.Contains(id, "echo_cancel") {
			continue
		}
		if usable(*dev) == nil {
			return dev
		}
	}
	return nil
}

// findMatch returns the first device whose id or description contains term.
func findMatch(devices []Device, term string) *Device {
	for i := range devices {
		if deviceMatches(devices[i], term) {
			return &devices[i]
		}
	}
	return nil
}

func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

func usable(device Device) error {
	if !device.Available {
		return fmt.Errorf("device is unavailable")
	}
	if device.Muted {
		return fmt.Errorf("device is muted")
	}
	return nil
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
