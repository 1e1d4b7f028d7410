// Package reconcile owns the mapping from observed system state to
// intended state: it issues the minimum set of default-device mutations,
// distinguishes user-initiated switches from automatic ones, emits
// user-visible notifications, and answers preference-status queries.
package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/notify"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
)

// SwitchReason explains why a default-device mutation was issued; it is
// carried in notifications and dictates logging level.
type SwitchReason int

const (
	HigherPriority SwitchReason = iota
	PreviousUnavailable
	Manual
)

func (r SwitchReason) String() string {
	switch r {
	case HigherPriority:
		return "higher priority device available"
	case PreviousUnavailable:
		return "previous device unavailable"
	case Manual:
		return "manual selection"
	default:
		return "unknown"
	}
}

// manualGraceWindow suppresses automatic reconciliation for this long
// after a user-initiated switch is detected, so the periodic safety poll
// doesn't immediately fight a choice the user just made. Supplemented
// from the project's prior implementation (controller_v2's manual-switch
// detection), which spec.md's distillation did not carry over.
const manualGraceWindow = 5 * time.Second

// PreferenceStatus answers "is the system where the policy wants it to
// be" for both directions.
type PreferenceStatus struct {
	OutputMatches   bool
	InputMatches    bool
	CurrentOutput   *audio.Device
	CurrentInput    *audio.Device
	PreferredOutput *audio.Device
	PreferredInput  *audio.Device
}

// PreferenceChanges reports which directions ApplyPreferences actually
// mutated.
type PreferenceChanges struct {
	OutputChanged bool
	InputChanged  bool
	Errors        []error
}

// Controller holds ControllerState (intended_output/intended_input) and
// issues all default-device mutations.
type Controller struct {
	system   audio.System
	resolver *policy.Resolver
	sink     notify.Sink

	notifyAvailability bool
	notifySwitching    bool

	mu             sync.Mutex
	intendedOutput *audio.Device
	intendedInput  *audio.Device
	manualUntil    time.Time
}

// New builds a Controller. notifyAvailability/notifySwitching mirror the
// configuration's notification filter flags and may be updated later via
// SetNotificationPolicy on hot reload.
func New(system audio.System, resolver *policy.Resolver, sink notify.Sink, notifyAvailability, notifySwitching bool) *Controller {
	return &Controller{
		system:             system,
		resolver:           resolver,
		sink:               sink,
		notifyAvailability: notifyAvailability,
		notifySwitching:    notifySwitching,
	}
}

// SetNotificationPolicy updates the notification filter flags, e.g. after
// a configuration hot reload.
func (c *Controller) SetNotificationPolicy(availability, switching bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifyAvailability = availability
	c.notifySwitching = switching
}

// InManualGraceWindow reports whether a user-initiated switch was
// detected recently enough that automatic reconciliation should be
// suppressed.
func (c *Controller) InManualGraceWindow(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Before(c.manualUntil)
}

// NoteManualSwitch records that a switch was not initiated by
// ApplyDefault, starting the manual grace window.
func (c *Controller) NoteManualSwitch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manualUntil = now.Add(manualGraceWindow)
}

// IsIntendedDefault reports whether name matches the device the
// Controller itself last applied for dir. The Device Change Listener
// uses this to tell an OS-reported default change apart from the echo
// of its own ApplyDefault call, so it only flags genuinely
// user-initiated switches.
func (c *Controller) IsIntendedDefault(dir audio.Direction, name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	var intended *audio.Device
	switch dir {
	case audio.Output:
		intended = c.intendedOutput
	case audio.Input:
		intended = c.intendedInput
	}
	return intended != nil && intended.Name == name
}

// ApplyDefault issues AudioSystem.SetDefault for device/direction and
// updates intended state on success.
func (c *Controller) ApplyDefault(ctx context.Context, device audio.Device, dir audio.Direction, reason SwitchReason) error {
	if err := c.system.SetDefault(ctx, dir, device.Name); err != nil {
		c.emitSwitching(fmt.Sprintf("Switch failed: %s", device.Name), err.Error())
		log.Printf("reconcile: set default %s to %q failed: %v", dir, device.Name, err)
		return err
	}

	c.mu.Lock()
	switch dir {
	case audio.Output:
		c.intendedOutput = &device
	case audio.Input:
		c.intendedInput = &device
	}
	c.mu.Unlock()

	switch dir {
	case audio.Output:
		c.resolver.UpdateCurrentOutput(device.Name)
	case audio.Input:
		c.resolver.UpdateCurrentInput(device.Name)
	}

	c.emitSwitching(fmt.Sprintf("Switched %s default", dir), fmt.Sprintf("%s (%s)", device.Name, reason))
	log.Printf("reconcile: switched %s default to %q (%s)", dir, device.Name, reason)
	return nil
}

// HandleDeviceConnected emits a connect notification, nothing more.
// device has just appeared in a raw, un-debounced enumeration snapshot —
// it has not yet cleared the Stability Filter's settle window, so it must
// never be switched to from here. The Listener re-evaluates the stable
// device set on every topology change and calls ApplyDefault itself once
// a device actually qualifies; duplicating that decision against the raw
// siblings/device snapshot would switch defaults before
// stability.BluetoothStabilityMs / stability.StabilityMs has elapsed.
func (c *Controller) HandleDeviceConnected(_ context.Context, device audio.Device, _ []audio.Device) {
	c.emitAvailability(fmt.Sprintf("%s connected", device.Name), "")
}

// HandleDeviceDisconnected clears intended state if it pointed at device,
// emits a disconnect notification, and falls back to the next-best
// available device (excluding this one) if any.
func (c *Controller) HandleDeviceDisconnected(ctx context.Context, device audio.Device, remaining []audio.Device) {
	c.emitAvailability(fmt.Sprintf("%s disconnected", device.Name), "")

	c.mu.Lock()
	var clearOutput, clearInput bool
	if c.intendedOutput != nil && c.intendedOutput.Identity() == device.Identity() {
		c.intendedOutput = nil
		clearOutput = true
	}
	if c.intendedInput != nil && c.intendedInput.Identity() == device.Identity() {
		c.intendedInput = nil
		clearInput = true
	}
	c.mu.Unlock()

	if clearOutput {
		if replacement := c.resolver.BestOutput(remaining); replacement != nil {
			if err := c.ApplyDefault(ctx, *replacement, audio.Output, PreviousUnavailable); err != nil {
				log.Printf("reconcile: apply output fallback failed: %v", err)
			}
		}
	}
	if clearInput {
		if replacement := c.resolver.BestInput(remaining); replacement != nil {
			if err := c.ApplyDefault(ctx, *replacement, audio.Input, PreviousUnavailable); err != nil {
				log.Printf("reconcile: apply input fallback failed: %v", err)
			}
		}
	}
}

// CheckPreferences runs the resolver against currently enumerated devices
// and reports whether the system matches policy, without mutating
// anything.
func (c *Controller) CheckPreferences(ctx context.Context) (PreferenceStatus, error) {
	devices, err := c.system.Enumerate(ctx)
	if err != nil {
		return PreferenceStatus{}, err
	}

	currentOutput, _ := c.system.GetDefault(ctx, audio.Output)
	currentInput, _ := c.system.GetDefault(ctx, audio.Input)

	preferredOutput := c.resolver.BestOutput(devices)
	preferredInput := c.resolver.BestInput(devices)

	status := PreferenceStatus{
		CurrentOutput:   currentOutput,
		CurrentInput:    currentInput,
		PreferredOutput: preferredOutput,
		PreferredInput:  preferredInput,
		OutputMatches:   deviceNameEqual(currentOutput, preferredOutput),
		InputMatches:    deviceNameEqual(currentInput, preferredInput),
	}
	return status, nil
}

// ApplyPreferences forces ApplyDefault for every direction where current
// diverges from preferred.
func (c *Controller) ApplyPreferences(ctx context.Context) (PreferenceChanges, error) {
	status, err := c.CheckPreferences(ctx)
	if err != nil {
		return PreferenceChanges{}, err
	}

	var changes PreferenceChanges
	if !status.OutputMatches && status.PreferredOutput != nil {
		if err := c.ApplyDefault(ctx, *status.PreferredOutput, audio.Output, HigherPriority); err != nil {
			changes.Errors = append(changes.Errors, err)
		} else {
			changes.OutputChanged = true
		}
	}
	if !status.InputMatches && status.PreferredInput != nil {
		if err := c.ApplyDefault(ctx, *status.PreferredInput, audio.Input, HigherPriority); err != nil {
			changes.Errors = append(changes.Errors, err)
		} else {
			changes.InputChanged = true
		}
	}
	return changes, nil
}

func deviceNameEqual(a, b *audio.Device) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name == b.Name
}

func (c *Controller) emitAvailability(title, body string) {
	c.mu.Lock()
	enabled := c.notifyAvailability
	c.mu.Unlock()
	if !enabled || c.sink == nil {
		return
	}
	if err := c.sink.Emit(title, body, notify.DeviceChange); err != nil {
		log.Printf("reconcile: notification failed: %v", err)
	}
}

func (c *Controller) emitSwitching(title, body string) {
	c.mu.Lock()
	enabled := c.notifySwitching
	c.mu.Unlock()
	if !enabled || c.sink == nil {
		return
	}
	if err := c.sink.Emit(title, body, notify.SwitchAction); err != nil {
		log.Printf("reconcile: notification failed: %v", err)
	}
}
