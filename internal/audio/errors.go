package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermissionDenied indicates the audio server refused capture access.
	ErrPermissionDenied = errors.New("microphone access denied by audio server")
	// ErrNoInputDevice indicates no capture source exists on this host.
	ErrNoInputDevice = errors.New("no audio input device found")
)

// classifyAcquireError maps raw Pulse failures onto the acquisition taxonomy.
// Anything that is neither a permission refusal nor a missing device stays a
// generic device error.
func classifyAcquireError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied") || strings.Contains(msg, "permission denied"):
		return fmt.Errorf("%w (%v)", ErrPermissionDenied, err)
	case strings.Contains(msg, "no such entity") || strings.Contains(msg, "no audio input"):
		return fmt.Errorf("%w (%v)", ErrNoInputDevice, err)
	default:
		return err
	}
}
