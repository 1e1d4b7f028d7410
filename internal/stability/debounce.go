// Package stability implements the stability filter: it delays admitting
// a newly appeared device as a switching candidate until it has been
// continuously visible long enough, so that wireless peripherals which
// announce their output and input endpoints moments apart don't trigger
// two separate switches.
package stability

import (
	"strings"
	"time"
)

const (
	// StabilityMs is the default continuous-visibility threshold.
	StabilityMs = 750
	// BluetoothStabilityMs applies to devices whose name matches the
	// bundled Bluetooth keyword list.
	BluetoothStabilityMs = 1500
)

// bluetoothKeywords is matched case-insensitively as a substring of the
// device name.
var bluetoothKeywords = []string{
	"airpod", "bluetooth", "beats", "bose", "sony", "jabra", "jbl",
}

// IsWireless reports whether name matches the bundled Bluetooth keyword
// list.
func IsWireless(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range bluetoothKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Threshold returns the stability threshold that applies to a device
// named name.
func Threshold(name string) time.Duration {
	if IsWireless(name) {
		return BluetoothStabilityMs * time.Millisecond
	}
	return StabilityMs * time.Millisecond
}

// PairPrefix returns the portion of name before its first '-', trimmed of
// surrounding whitespace. Wireless peripherals commonly name their output
// and input endpoints with a shared prefix before a direction suffix
// (e.g. "AirPods-Output" / "AirPods-Input").
func PairPrefix(name string) string {
	if idx := strings.IndexByte(name, '-'); idx >= 0 {
		return strings.TrimSpace(name[:idx])
	}
	return strings.TrimSpace(name)
}

// Filter decides, from a device's first-appearance timestamp supplied by
// the caller, whether it is stable enough to participate in
// reconciliation. The timestamps themselves are kept by the caller.
type Filter struct {
	now func() time.Time
}

// NewFilter returns a Filter using time.Now. Tests may construct one
// directly with an overridden now field for a deterministic clock.
func NewFilter() *Filter {
	return &Filter{now: time.Now}
}

// WithClock returns a Filter using the supplied clock function, for
// hermetic tests that don't want to sleep real wall-clock time.
func WithClock(now func() time.Time) *Filter {
	return &Filter{now: now}
}

// IsStable reports whether the device named name, first seen at
// appearedAt and still possibly paired with peers in siblings (devices
// from the opposite direction observed in the same snapshot), is eligible
// to trigger a switch right now.
//
// Disconnection is handled entirely by the caller discarding the
// appearance-time entry; no stability delay ever applies to removals.
func (f *Filter) IsStable(name string, appearedAt time.Time, siblings []string) bool {
	now := f.now()
	if now.Sub(appearedAt) < Threshold(name) {
		return false
	}

	if !IsWireless(name) {
		return true
	}

	prefix := PairPrefix(name)
	for _, sibling := range siblings {
		if PairPrefix(sibling) == prefix {
			return true
		}
	}
	return false
}
