package stability

import (
	"testing"
	"time"
)

func TestIsWireless(t *testing.T) {
	cases := map[string]bool{
		"AirPods Pro":     true,
		"Bose QC45":       true,
		"JBL Flip":        true,
		"MacBook Pro Mic": false,
		"USB Microphone":  false,
	}
	for name, want := range cases {
		if got := IsWireless(name); got != want {
			t.Errorf("IsWireless(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestThresholdPicksBluetoothForWireless(t *testing.T) {
	if Threshold("AirPods Pro") != BluetoothStabilityMs*time.Millisecond {
		t.Error("expected bluetooth threshold for AirPods")
	}
	if Threshold("Built-in Speakers") != StabilityMs*time.Millisecond {
		t.Error("expected default threshold for non-wireless device")
	}
}

func TestPairPrefix(t *testing.T) {
	if got := PairPrefix("AirPods-Output"); got != "AirPods" {
		t.Errorf("PairPrefix() = %q, want AirPods", got)
	}
	if got := PairPrefix("NoDash"); got != "NoDash" {
		t.Errorf("PairPrefix() = %q, want NoDash", got)
	}
}

func TestIsStableBeforeThreshold(t *testing.T) {
	base := time.Unix(0, 0)
	clock := base
	f := WithClock(func() time.Time { return clock })

	clock = base.Add(100 * time.Millisecond)
	if f.IsStable("AirPods-Output", base, nil) {
		t.Error("expected unstable before bluetooth threshold elapses")
	}
}

func TestIsStableWirelessRequiresPairedPeer(t *testing.T) {
	base := time.Unix(0, 0)
	clock := base.Add(2 * time.Second)
	f := WithClock(func() time.Time { return clock })

	if f.IsStable("AirPods-Output", base, nil) {
		t.Error("expected unstable without a paired peer")
	}
	if !f.IsStable("AirPods-Output", base, []string{"AirPods-Input"}) {
		t.Error("expected stable once a paired peer is present")
	}
}

func TestIsStableNonWirelessNoPeerRequired(t *testing.T) {
	base := time.Unix(0, 0)
	clock := base.Add(1 * time.Second)
	f := WithClock(func() time.Time { return clock })

	if !f.IsStable("USB Microphone", base, nil) {
		t.Error("expected stable for non-wireless device once threshold elapses, no peer required")
	}
}

func TestIsStableWirelessScenario(t *testing.T) {
	// Mirrors the spec's wireless-pairing scenario: output appears at
	// t=100ms, input at t=1100ms. Each endpoint needs the 1500ms bluetooth
	// threshold from its own first appearance, so the output becomes
	// stable at t=1600ms and the input at t=2600ms.
	base := time.Unix(0, 0)
	outputAppeared := base.Add(100 * time.Millisecond)
	inputAppeared := base.Add(1100 * time.Millisecond)

	clock := base.Add(1500 * time.Millisecond)
	f := WithClock(func() time.Time { return clock })
	if f.IsStable("AirPods-Output", outputAppeared, []string{"AirPods-Input"}) {
		t.Error("expected still unstable at t=1500ms")
	}

	clock = base.Add(1600 * time.Millisecond)
	if !f.IsStable("AirPods-Output", outputAppeared, []string{"AirPods-Input"}) {
		t.Error("expected stable at t=1600ms")
	}
	if f.IsStable("AirPods-Input", inputAppeared, []string{"AirPods-Output"}) {
		t.Error("expected input still unstable at t=1600ms")
	}

	clock = base.Add(2600 * time.Millisecond)
	if !f.IsStable("AirPods-Input", inputAppeared, []string{"AirPods-Output"}) {
		t.Error("expected input stable at t=2600ms")
	}
}
