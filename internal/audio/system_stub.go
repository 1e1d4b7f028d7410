//go:build !windows

package audio

import "context"

// stubSystem reports ErrUnsupportedPlatform from every query and mutation
// method, matching the teacher's own !windows WCA stub convention.
// OnChange returns a no-op unsubscribe and Close returns nil.
type stubSystem struct{}

// NewSystem returns a no-op AudioSystem on platforms without a concrete
// binding. A CoreAudio (macOS) or PipeWire/PulseAudio (Linux) binding
// would live in its own system_<goos>.go alongside this one; none is
// wired here because no such library appeared anywhere in the retrieval
// pack's dependency surface.
func NewSystem() (System, error) {
	return stubSystem{}, nil
}

func (stubSystem) Enumerate(context.Context) ([]Device, error) { return nil, ErrUnsupportedPlatform }

func (stubSystem) GetDefault(context.Context, Direction) (*Device, error) {
	return nil, ErrUnsupportedPlatform
}

func (stubSystem) SetDefault(context.Context, Direction, string) error {
	return ErrUnsupportedPlatform
}

func (stubSystem) IsAvailable(context.Context, string) (bool, error) {
	return false, ErrUnsupportedPlatform
}

func (stubSystem) OnChange(func()) (unsubscribe func()) {
	return func() {}
}

func (stubSystem) Close() error { return nil }
