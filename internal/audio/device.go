// Package audio defines the AudioSystem capability: the abstract boundary
// between the reconciliation engine and the host's real audio hardware
// binding, plus the Device record the rest of the engine reasons about.
package audio

import "context"

// Direction is the audio flow direction of an endpoint.
type Direction int

const (
	Output Direction = iota
	Input
	InputOutput
)

func (d Direction) String() string {
	switch d {
	case Output:
		return "output"
	case Input:
		return "input"
	case InputOutput:
		return "input/output"
	default:
		return "unknown"
	}
}

// Accepts reports whether a device of direction d may serve slot want
// (Output or Input; InputOutput serves both).
func (d Direction) Accepts(want Direction) bool {
	if d == InputOutput {
		return true
	}
	return d == want
}

// Device is an immutable snapshot of an observed audio endpoint. A new
// Device value is produced on every enumeration; two devices are equal
// when their ID fields match.
type Device struct {
	ID          string
	UID         string
	Name        string
	Direction   Direction
	IsDefault   bool
	IsAvailable bool
}

// Identity returns the stable identity key for this device: the UID when
// present, else the OS-reported ID. Name is display-only and must never be
// used as an identity key (it can collide or be renamed by the driver).
func (d Device) Identity() string {
	if d.UID != "" {
		return d.UID
	}
	return d.ID
}

// System is the AudioSystem capability: enumerate endpoints, read/write
// the current default per direction, and subscribe to change
// notifications. Implementations may invoke the OnChange callback from a
// platform-managed thread; callers must treat it as a signal to resync,
// not as an incremental patch (see System.OnChange for ordering caveats).
type System interface {
	// Enumerate lists all currently visible endpoints.
	Enumerate(ctx context.Context) ([]Device, error)

	// GetDefault returns the current default endpoint for dir, or nil if
	// none is set.
	GetDefault(ctx context.Context, dir Direction) (*Device, error)

	// SetDefault makes the endpoint named deviceName the default for dir.
	// The capability boundary is name-driven because the underlying OS
	// call on every known platform is name/ID-driven, not UID-driven.
	SetDefault(ctx context.Context, dir Direction, deviceName string) error

	// IsAvailable reports whether the endpoint identified by id (as
	// returned by Device.Identity) is currently visible.
	IsAvailable(ctx context.Context, id string) (bool, error)

	// OnChange registers cb to be invoked after any device-topology or
	// default-endpoint change. It returns an unsubscribe function that
	// must be called before the System is closed. Events from a single
	// topic arrive in order; events across topics are not ordered
	// relative to each other, so cb carries no event payload — callers
	// always resync by calling Enumerate/GetDefault.
	OnChange(cb func()) (unsubscribe func())

	// Close releases OS resources. It must be safe to call after every
	// OnChange subscription has been unsubscribed.
	Close() error
}
