//go:build windows

package audio

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// comInitMutex serializes CoInitializeEx calls the way the teacher's
// widget package does for its own WCA components.
var comInitMutex sync.Mutex

// ensureCOMInitialized initializes COM as a single-threaded apartment on
// the calling goroutine and pins it to an OS thread, since COM apartment
// state is thread-affine. Safe to call repeatedly on the same thread.
func ensureCOMInitialized() error {
	comInitMutex.Lock()
	defer comInitMutex.Unlock()

	runtime.LockOSThread()

	err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err != nil {
		var oleErr *ole.OleError
		if errors.As(err, &oleErr) {
			if oleErr.Code() == 0x00000001 || oleErr.Code() == 0x80000001 {
				// S_FALSE: already initialized on this thread.
				return nil
			}
		}
		runtime.UnlockOSThread()
		return fmt.Errorf("CoInitializeEx failed: %w", err)
	}
	return nil
}

func createDeviceEnumerator() (*wca.IMMDeviceEnumerator, error) {
	var mmde *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, 0, wca.CLSCTX_ALL, wca.IID_IMMDeviceEnumerator, &mmde); err != nil {
		return nil, fmt.Errorf("create device enumerator: %w", err)
	}
	return mmde, nil
}

func directionToFlow(dir Direction) wca.EDataFlow {
	switch dir {
	case Input:
		return wca.ECapture
	default:
		return wca.ERender
	}
}

func flowToDirection(flow uint32) Direction {
	switch flow {
	case wca.ECapture:
		return Input
	case wca.ERender:
		return Output
	default:
		return InputOutput
	}
}

func deviceFromMMDevice(mmd *wca.IMMDevice, defaultOutputID, defaultInputID string) (Device, error) {
	var id string
	if err := mmd.GetId(&id); err != nil {
		return Device{}, fmt.Errorf("get device id: %w", err)
	}

	var state uint64
	if err := mmd.GetState(&state); err != nil {
		return Device{}, fmt.Errorf("get device state: %w", err)
	}

	dispatch, err := mmd.QueryInterface(wca.IID_IMMEndpoint)
	if err != nil {
		return Device{}, fmt.Errorf("query IMMEndpoint: %w", err)
	}
	endpoint := (*wca.IMMEndpoint)(unsafe.Pointer(dispatch))
	defer endpoint.Release()

	var flow uint32
	if err := endpoint.GetDataFlow(&flow); err != nil {
		return Device{}, fmt.Errorf("get data flow: %w", err)
	}

	var store *wca.IPropertyStore
	if err := mmd.OpenPropertyStore(wca.STGM_READ, &store); err != nil {
		return Device{}, fmt.Errorf("open property store: %w", err)
	}
	defer store.Release()

	value := &wca.PROPVARIANT{}
	name := id
	if err := store.GetValue(&wca.PKEY_Device_FriendlyName, value); err == nil {
		name = value.String()
	} else {
		log.Printf("audio: could not read friendly name for %s: %v", id, err)
	}

	dir := flowToDirection(flow)
	return Device{
		ID:          id,
		UID:         id,
		Name:        name,
		Direction:   dir,
		IsDefault:   (dir == Output && id == defaultOutputID) || (dir == Input && id == defaultInputID),
		IsAvailable: state == wca.DEVICE_STATE_ACTIVE,
	}, nil
}
