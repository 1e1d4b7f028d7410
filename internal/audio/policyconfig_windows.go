//go:build windows

package audio

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca/pkg/wca"
)

// IPolicyConfig is undocumented: Windows exposes no public API to change
// the default audio endpoint. Every real device-switcher tool (and this
// program's own prior Rust implementation) calls the same private
// interface COM exposes for the system's own audio control panel. The
// GUIDs and vtable layout below are the ones the community has reverse
// engineered and exercised since Windows Vista; they have not changed
// across subsequent Windows releases.
var (
	clsidPolicyConfigClient = ole.NewGUID("{870AF99C-171D-4F9E-AF0D-E63DF40C2BC9}")
	iidIPolicyConfig        = ole.NewGUID("{F8679F50-850A-41CF-9C72-430F290290C8}")
)

// policyConfigVtbl mirrors the IPolicyConfig vtable layout (IUnknown
// followed by the endpoint-format and default-endpoint management
// methods). Every slot is declared so the offsets are correct; this
// package calls only Release and SetDefaultEndpoint.
type policyConfigVtbl struct {
	QueryInterface        uintptr
	AddRef                uintptr
	Release               uintptr
	GetMixFormat          uintptr
	GetDeviceFormat       uintptr
	ResetDeviceFormat     uintptr
	SetDeviceFormat       uintptr
	GetProcessingPeriod   uintptr
	SetProcessingPeriod   uintptr
	GetShareMode          uintptr
	SetShareMode          uintptr
	GetPropertyValue      uintptr
	SetPropertyValue      uintptr
	SetDefaultEndpoint    uintptr
	SetEndpointVisibility uintptr
}

type iPolicyConfig struct {
	lpVtbl *policyConfigVtbl
}

func (p *iPolicyConfig) VTable() *policyConfigVtbl { return p.lpVtbl }

func (p *iPolicyConfig) Release() {
	syscall.SyscallN(p.lpVtbl.Release, uintptr(unsafe.Pointer(p)))
}

// setDefaultEndpoint makes deviceID the default endpoint for the given
// role. A real default is set for every role (console, multimedia,
// communications) by calling this three times, matching what the Windows
// sound control panel itself does.
func (p *iPolicyConfig) setDefaultEndpoint(deviceID string, role uint32) error {
	idPtr, err := syscall.UTF16PtrFromString(deviceID)
	if err != nil {
		return fmt.Errorf("encode device id: %w", err)
	}

	hr, _, _ := syscall.SyscallN(
		p.lpVtbl.SetDefaultEndpoint,
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(idPtr)),
		uintptr(role),
	)
	if hr != 0 {
		return fmt.Errorf("SetDefaultEndpoint failed: 0x%08X", hr)
	}
	return nil
}

// setDefaultEndpointAllRoles calls setDefaultEndpoint for console,
// multimedia, and communications roles so the change sticks regardless of
// which role an application queries.
func setDefaultEndpointAllRoles(deviceID string) error {
	var policyConfig *iPolicyConfig
	if err := wca.CoCreateInstance(clsidPolicyConfigClient, 0, wca.CLSCTX_ALL, iidIPolicyConfig, &policyConfig); err != nil {
		return fmt.Errorf("create IPolicyConfig: %w", err)
	}
	defer policyConfig.Release()

	roles := []uint32{wca.EConsole, wca.EMultimedia, wca.ECommunication}
	for _, role := range roles {
		if err := policyConfig.setDefaultEndpoint(deviceID, role); err != nil {
			return err
		}
	}
	return nil
}
