package listener

import (
	"context"
	"testing"
	"time"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
	"github.com/pozitronik/audio-device-monitor-go/internal/reconcile"
)

// These tests wire the real Listener to a real reconcile.Controller (no
// fakeReconciler) through the wireless-pairing and flap timings from
// spec.md §8, to catch regressions where a connect event switches a
// default before the Stability Filter admits the device — a class of bug
// invisible to fakeReconciler-based tests, since the fake only records
// HandleDeviceConnected calls without ever issuing a switch.

func newScenarioController(sys *fakeSystem, outputRules, inputRules []config.DeviceRule) (*Listener, *reconcile.Controller) {
	cfg := &config.Config{OutputDevices: outputRules, InputDevices: inputRules}
	resolver := policy.NewResolver(cfg)
	controller := reconcile.New(sys, resolver, nil, false, false)
	l := New(sys, resolver, controller)
	return l, controller
}

func TestScenarioWirelessPairingDelaysSwitchUntilStable(t *testing.T) {
	outputRules := []config.DeviceRule{
		{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true},
		{Name: "MacBook", Weight: 10, MatchType: config.MatchContains, Enabled: true},
	}
	inputRules := []config.DeviceRule{
		{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true},
		{Name: "MacBook", Weight: 10, MatchType: config.MatchContains, Enabled: true},
	}

	speakers := audio.Device{ID: "speakers", Name: "MacBookSpeakers", Direction: audio.Output}
	mic := audio.Device{ID: "mic", Name: "MacBookMic", Direction: audio.Input}
	airpodsOut := audio.Device{ID: "ap-out", Name: "AirPods-Output", Direction: audio.Output}
	airpodsIn := audio.Device{ID: "ap-in", Name: "AirPods-Input", Direction: audio.Input}

	sys := &fakeSystem{devices: []audio.Device{speakers, mic}}
	l, _ := newScenarioController(sys, outputRules, inputRules)

	t0 := time.Unix(0, 0)
	l.now = func() time.Time { return t0 }
	l.HandleDeviceListChanged(context.Background())
	sys.setCalls = nil // baseline sync may self-apply the current defaults; not under test

	// t=100ms: AirPods-Output appears alone. No paired sibling yet, and no
	// time has elapsed either, so it must not be switched to.
	sys.devices = []audio.Device{speakers, mic, airpodsOut}
	l.now = func() time.Time { return t0.Add(100 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "AirPods-Output")

	// t=1100ms: AirPods-Input appears too, but neither has yet cleared the
	// 1500ms bluetooth stability threshold from its own first appearance.
	sys.devices = []audio.Device{speakers, mic, airpodsOut, airpodsIn}
	l.now = func() time.Time { return t0.Add(1100 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "AirPods-Output")
	assertNoSwitchTo(t, sys, "AirPods-Input")

	// t=1600ms: AirPods-Output (appeared at 100ms) has now been
	// continuously visible for 1500ms and has a paired sibling, so it wins.
	// AirPods-Input (appeared at 1100ms) has not yet cleared its own
	// threshold.
	l.now = func() time.Time { return t0.Add(1600 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertSwitchedTo(t, sys, audio.Output, "AirPods-Output")
	assertNoSwitchTo(t, sys, "AirPods-Input")

	// t=2600ms: AirPods-Input has now cleared its own threshold too.
	l.now = func() time.Time { return t0.Add(2600 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertSwitchedTo(t, sys, audio.Input, "AirPods-Input")
}

func TestScenarioFlapSuppressesSwitchUntilSettled(t *testing.T) {
	inputRules := []config.DeviceRule{
		{Name: "USB-Mic", Weight: 50, MatchType: config.MatchExact, Enabled: true},
		{Name: "Built-in Mic", Weight: 10, MatchType: config.MatchExact, Enabled: true},
	}

	builtIn := audio.Device{ID: "builtin", Name: "Built-in Mic", Direction: audio.Input}
	usbMic := audio.Device{ID: "usb", Name: "USB-Mic", Direction: audio.Input}

	sys := &fakeSystem{devices: []audio.Device{builtIn}}
	l, _ := newScenarioController(sys, nil, inputRules)

	t0 := time.Unix(0, 0)
	l.now = func() time.Time { return t0.Add(-time.Hour) }
	l.HandleDeviceListChanged(context.Background())
	sys.setCalls = nil

	// t=0: USB-Mic appears.
	sys.devices = []audio.Device{builtIn, usbMic}
	l.now = func() time.Time { return t0 }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "USB-Mic")

	// t=200ms: USB-Mic disappears (cable flap).
	sys.devices = []audio.Device{builtIn}
	l.now = func() time.Time { return t0.Add(200 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "USB-Mic")

	// t=300ms: USB-Mic reappears; its appearance time resets to 300ms.
	sys.devices = []audio.Device{builtIn, usbMic}
	l.now = func() time.Time { return t0.Add(300 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "USB-Mic")

	// t=1000ms (700ms after the 300ms reappearance): still short of the
	// 750ms non-bluetooth threshold.
	l.now = func() time.Time { return t0.Add(1000 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertNoSwitchTo(t, sys, "USB-Mic")

	// t=1050ms (750ms after reappearance): threshold cleared, USB-Mic
	// outranks Built-in Mic, switch now occurs.
	l.now = func() time.Time { return t0.Add(1050 * time.Millisecond) }
	l.HandleDeviceListChanged(context.Background())
	assertSwitchedTo(t, sys, audio.Input, "USB-Mic")
}

func assertNoSwitchTo(t *testing.T, sys *fakeSystem, name string) {
	t.Helper()
	for _, c := range sys.setCalls {
		if c.name == name {
			t.Fatalf("premature switch to %q (stability filter bypassed): calls=%+v", name, sys.setCalls)
		}
	}
}

func assertSwitchedTo(t *testing.T, sys *fakeSystem, dir audio.Direction, name string) {
	t.Helper()
	for _, c := range sys.setCalls {
		if c.dir == dir && c.name == name {
			return
		}
	}
	t.Fatalf("expected a switch to %q for %s, got calls=%+v", name, dir, sys.setCalls)
}
