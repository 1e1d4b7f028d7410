package policy

import (
	"testing"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
)

func cfgWithRules(output, input []config.DeviceRule) *config.Config {
	return &config.Config{OutputDevices: output, InputDevices: input}
}

func TestBestOutputReturnsNilWhenNoRuleMatches(t *testing.T) {
	r := NewResolver(cfgWithRules(nil, nil))
	devices := []audio.Device{{ID: "1", Name: "Unknown Speakers", Direction: audio.Output}}

	if got := r.BestOutput(devices); got != nil {
		t.Errorf("BestOutput() = %+v, want nil", got)
	}
}

func TestBestOutputReturnsNilOnEmptyDeviceList(t *testing.T) {
	r := NewResolver(cfgWithRules([]config.DeviceRule{rule("AirPods", config.MatchContains, true)}, nil))
	if got := r.BestOutput(nil); got != nil {
		t.Errorf("BestOutput() = %+v, want nil", got)
	}
}

func TestBestOutputPicksHighestWeight(t *testing.T) {
	rules := []config.DeviceRule{
		{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true},
		{Name: "MacBook", Weight: 10, MatchType: config.MatchContains, Enabled: true},
	}
	r := NewResolver(cfgWithRules(rules, nil))

	devices := []audio.Device{
		{ID: "1", Name: "MacBook Pro Speakers", Direction: audio.Output},
		{ID: "2", Name: "AirPods Pro", Direction: audio.Output},
	}

	best := r.BestOutput(devices)
	if best == nil || best.Name != "AirPods Pro" {
		t.Errorf("BestOutput() = %+v, want AirPods Pro", best)
	}
}

func TestBestOutputTieBrokenByEnumerationOrder(t *testing.T) {
	rules := []config.DeviceRule{{Name: "Speaker", Weight: 50, MatchType: config.MatchContains, Enabled: true}}
	r := NewResolver(cfgWithRules(rules, nil))

	devices := []audio.Device{
		{ID: "1", Name: "Speaker A", Direction: audio.Output},
		{ID: "2", Name: "Speaker B", Direction: audio.Output},
	}

	best := r.BestOutput(devices)
	if best == nil || best.ID != "1" {
		t.Errorf("BestOutput() = %+v, want first-listed device (id 1)", best)
	}
}

func TestBestOutputFiltersByDirection(t *testing.T) {
	rules := []config.DeviceRule{{Name: "Mic", Weight: 50, MatchType: config.MatchContains, Enabled: true}}
	r := NewResolver(cfgWithRules(rules, nil))

	devices := []audio.Device{{ID: "1", Name: "USB Mic", Direction: audio.Input}}
	if got := r.BestOutput(devices); got != nil {
		t.Errorf("BestOutput() = %+v, want nil (input-only device)", got)
	}
}

func TestShouldSwitchOutputTrueUntilRecorded(t *testing.T) {
	r := NewResolver(cfgWithRules(nil, nil))
	d := audio.Device{Name: "AirPods"}

	if !r.ShouldSwitchOutput(d) {
		t.Error("expected true before any UpdateCurrentOutput call")
	}
	r.UpdateCurrentOutput("AirPods")
	if r.ShouldSwitchOutput(d) {
		t.Error("expected false once recorded as current")
	}
	if !r.ShouldSwitchOutput(audio.Device{Name: "MacBook Pro Speakers"}) {
		t.Error("expected true for a different device name")
	}
}
