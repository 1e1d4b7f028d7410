//go:build windows

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/moutend/go-wca/pkg/wca"
)

// wcaSystem is the Windows Core Audio-backed AudioSystem capability.
type wcaSystem struct {
	mu       sync.Mutex
	mmde     *wca.IMMDeviceEnumerator
	notifier *deviceNotifier
}

// NewSystem returns the Windows AudioSystem implementation, built on
// IMMDeviceEnumerator for enumeration/defaults and the undocumented
// IPolicyConfig interface for writing a new default (see
// policyconfig_windows.go).
func NewSystem() (System, error) {
	if err := ensureCOMInitialized(); err != nil {
		return nil, fmt.Errorf("initialize COM: %w", err)
	}

	mmde, err := createDeviceEnumerator()
	if err != nil {
		return nil, err
	}

	notifier, err := newDeviceNotifier(mmde)
	if err != nil {
		mmde.Release()
		return nil, err
	}

	return &wcaSystem{mmde: mmde, notifier: notifier}, nil
}

func (s *wcaSystem) defaultIDs() (outID, inID string) {
	var outDevice *wca.IMMDevice
	if err := s.mmde.GetDefaultAudioEndpoint(wca.ERender, wca.EConsole, &outDevice); err == nil && outDevice != nil {
		var id string
		if outDevice.GetId(&id) == nil {
			outID = id
		}
		outDevice.Release()
	}

	var inDevice *wca.IMMDevice
	if err := s.mmde.GetDefaultAudioEndpoint(wca.ECapture, wca.EConsole, &inDevice); err == nil && inDevice != nil {
		var id string
		if inDevice.GetId(&id) == nil {
			inID = id
		}
		inDevice.Release()
	}
	return outID, inID
}

func (s *wcaSystem) Enumerate(_ context.Context) ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outID, inID := s.defaultIDs()

	var collection *wca.IMMDeviceCollection
	if err := s.mmde.EnumAudioEndpoints(wca.EAll, wca.DEVICE_STATE_ACTIVE, &collection); err != nil {
		return nil, &EnumerationError{Err: err}
	}
	defer collection.Release()

	var count uint32
	if err := collection.GetCount(&count); err != nil {
		return nil, &EnumerationError{Err: err}
	}

	devices := make([]Device, 0, count)
	for i := uint32(0); i < count; i++ {
		var mmd *wca.IMMDevice
		if err := collection.Item(i, &mmd); err != nil {
			return nil, &EnumerationError{Err: err}
		}

		d, err := deviceFromMMDevice(mmd, outID, inID)
		mmd.Release()
		if err != nil {
			return nil, &EnumerationError{Err: err}
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (s *wcaSystem) GetDefault(_ context.Context, dir Direction) (*Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mmd *wca.IMMDevice
	if err := s.mmde.GetDefaultAudioEndpoint(directionToFlow(dir), wca.EConsole, &mmd); err != nil {
		return nil, nil // no default for this direction
	}
	defer mmd.Release()

	outID, inID := s.defaultIDs()
	d, err := deviceFromMMDevice(mmd, outID, inID)
	if err != nil {
		return nil, &EnumerationError{Err: err}
	}
	return &d, nil
}

func (s *wcaSystem) SetDefault(_ context.Context, dir Direction, deviceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.enumerateLocked()
	if err != nil {
		return &SetDefaultError{Device: deviceName, Direction: dir, Err: err}
	}

	var targetID string
	for _, d := range devices {
		if d.Name == deviceName && d.Direction.Accepts(dir) {
			targetID = d.ID
			break
		}
	}
	if targetID == "" {
		return &SetDefaultError{Device: deviceName, Direction: dir, Err: ErrDeviceNotFound}
	}

	if err := setDefaultEndpointAllRoles(targetID); err != nil {
		return &SetDefaultError{Device: deviceName, Direction: dir, Err: err}
	}
	return nil
}

// enumerateLocked is Enumerate's body without re-acquiring s.mu, for
// callers that already hold it.
func (s *wcaSystem) enumerateLocked() ([]Device, error) {
	outID, inID := s.defaultIDs()

	var collection *wca.IMMDeviceCollection
	if err := s.mmde.EnumAudioEndpoints(wca.EAll, wca.DEVICE_STATE_ACTIVE, &collection); err != nil {
		return nil, err
	}
	defer collection.Release()

	var count uint32
	if err := collection.GetCount(&count); err != nil {
		return nil, err
	}

	devices := make([]Device, 0, count)
	for i := uint32(0); i < count; i++ {
		var mmd *wca.IMMDevice
		if err := collection.Item(i, &mmd); err != nil {
			return nil, err
		}
		d, err := deviceFromMMDevice(mmd, outID, inID)
		mmd.Release()
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func (s *wcaSystem) IsAvailable(ctx context.Context, id string) (bool, error) {
	devices, err := s.Enumerate(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		if d.Identity() == id && d.IsAvailable {
			return true, nil
		}
	}
	return false, nil
}

func (s *wcaSystem) OnChange(cb func()) (unsubscribe func()) {
	return s.notifier.subscribe(cb)
}

func (s *wcaSystem) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.stop()
	}
	if s.mmde != nil {
		s.mmde.Release()
		s.mmde = nil
	}
	return nil
}
