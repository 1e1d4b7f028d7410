package audio

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is returned by Enumerate, GetDefault, SetDefault
// and IsAvailable on platforms without a concrete AudioSystem binding.
var ErrUnsupportedPlatform = errors.New("audio: unsupported platform")

// ErrDeviceNotFound is returned when a manual switch names a device that
// is not currently enumerable.
var ErrDeviceNotFound = errors.New("audio: device not found")

// EnumerationError wraps a transient failure to enumerate devices. Callers
// should log it at warn and drop the triggering event; the next event
// retries.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string { return fmt.Sprintf("audio: enumeration failed: %v", e.Err) }
func (e *EnumerationError) Unwrap() error { return e.Err }

// SetDefaultError wraps a failure to change the default endpoint. It
// carries the device name and direction that were targeted so callers can
// build a "switch failed" notification.
type SetDefaultError struct {
	Device    string
	Direction Direction
	Err       error
}

func (e *SetDefaultError) Error() string {
	return fmt.Sprintf("audio: set default %s to %q failed: %v", e.Direction, e.Device, e.Err)
}
func (e *SetDefaultError) Unwrap() error { return e.Err }
