//go:build windows

package audio

import (
	"log"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// iidIMMNotificationClient is the interface ID for IMMNotificationClient.
var iidIMMNotificationClient = ole.NewGUID("{7991EEC9-7E89-4D85-8390-6C703CEC60C0}")

// deviceNotifier implements IMMNotificationClient with a hand-rolled
// vtable, exactly the technique the teacher uses in its own device
// notifier: callbacks fan out to subscriber closures rather than a single
// channel, since the System capability supports any number of listeners.
type deviceNotifier struct {
	mu          sync.RWMutex
	mmde        *wca.IMMDeviceEnumerator
	client      *notificationClient
	subscribers []func()
}

type notificationClient struct {
	lpVtbl   *notificationClientVtbl
	refCount uint32
	notifier *deviceNotifier
}

type notificationClientVtbl struct {
	QueryInterface         uintptr
	AddRef                 uintptr
	Release                uintptr
	OnDeviceStateChanged   uintptr
	OnDeviceAdded          uintptr
	OnDeviceRemoved        uintptr
	OnDefaultDeviceChanged uintptr
	OnPropertyValueChanged uintptr
}

func newDeviceNotifier(mmde *wca.IMMDeviceEnumerator) (*deviceNotifier, error) {
	dn := &deviceNotifier{mmde: mmde}
	dn.client = newNotificationClient(dn)

	hr, _, _ := syscall.SyscallN(
		dn.mmde.VTable().RegisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(dn.mmde)),
		uintptr(unsafe.Pointer(dn.client)),
	)
	if hr != 0 {
		log.Printf("audio: RegisterEndpointNotificationCallback failed: 0x%08X", hr)
	}
	return dn, nil
}

func (dn *deviceNotifier) subscribe(cb func()) (unsubscribe func()) {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	dn.subscribers = append(dn.subscribers, cb)
	idx := len(dn.subscribers) - 1

	return func() {
		dn.mu.Lock()
		defer dn.mu.Unlock()
		if idx < len(dn.subscribers) {
			dn.subscribers[idx] = nil
		}
	}
}

func (dn *deviceNotifier) notifySubscribers() {
	dn.mu.RLock()
	defer dn.mu.RUnlock()

	for _, cb := range dn.subscribers {
		if cb != nil {
			cb()
		}
	}
}

func (dn *deviceNotifier) stop() {
	dn.mu.Lock()
	defer dn.mu.Unlock()

	if dn.mmde != nil && dn.client != nil {
		hr, _, _ := syscall.SyscallN(
			dn.mmde.VTable().UnregisterEndpointNotificationCallback,
			uintptr(unsafe.Pointer(dn.mmde)),
			uintptr(unsafe.Pointer(dn.client)),
		)
		if hr != 0 {
			log.Printf("audio: UnregisterEndpointNotificationCallback failed: 0x%08X", hr)
		}
	}
	dn.subscribers = nil
}

func newNotificationClient(notifier *deviceNotifier) *notificationClient {
	client := &notificationClient{refCount: 1, notifier: notifier}
	client.lpVtbl = &notificationClientVtbl{
		QueryInterface:         syscall.NewCallback(ncQueryInterface),
		AddRef:                 syscall.NewCallback(ncAddRef),
		Release:                syscall.NewCallback(ncRelease),
		OnDeviceStateChanged:   syscall.NewCallback(ncOnDeviceStateChanged),
		OnDeviceAdded:          syscall.NewCallback(ncOnDeviceAdded),
		OnDeviceRemoved:        syscall.NewCallback(ncOnDeviceRemoved),
		OnDefaultDeviceChanged: syscall.NewCallback(ncOnDefaultDeviceChanged),
		OnPropertyValueChanged: syscall.NewCallback(ncOnPropertyValueChanged),
	}
	return client
}

func ncQueryInterface(this *notificationClient, riid *ole.GUID, ppvObject *unsafe.Pointer) uintptr {
	if ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, iidIMMNotificationClient) {
		*ppvObject = unsafe.Pointer(this)
		this.refCount++
		return 0
	}
	*ppvObject = nil
	return 0x80004002 // E_NOINTERFACE
}

func ncAddRef(this *notificationClient) uintptr {
	this.refCount++
	return uintptr(this.refCount)
}

func ncRelease(this *notificationClient) uintptr {
	this.refCount--
	return uintptr(this.refCount)
}

func ncOnDeviceStateChanged(this *notificationClient, _ *uint16, _ uint32) uintptr {
	if this.notifier != nil {
		this.notifier.notifySubscribers()
	}
	return 0
}

func ncOnDeviceAdded(this *notificationClient, _ *uint16) uintptr {
	if this.notifier != nil {
		this.notifier.notifySubscribers()
	}
	return 0
}

func ncOnDeviceRemoved(this *notificationClient, _ *uint16) uintptr {
	if this.notifier != nil {
		this.notifier.notifySubscribers()
	}
	return 0
}

func ncOnDefaultDeviceChanged(this *notificationClient, _ uint32, _ uint32, _ *uint16) uintptr {
	if this.notifier != nil {
		this.notifier.notifySubscribers()
	}
	return 0
}

func ncOnPropertyValueChanged(_ *notificationClient, _ *uint16, _ uintptr) uintptr {
	return 0
}
