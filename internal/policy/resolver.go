package policy

import (
	"sync"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
)

// Resolver picks the best candidate device per direction from a rule set,
// and remembers the last-observed current device name per direction so it
// can answer should-switch queries. It never touches the OS; it is a pure
// decision module.
type Resolver struct {
	mu            sync.Mutex
	outputRules   []config.DeviceRule
	inputRules    []config.DeviceRule
	currentOutput *string
	currentInput  *string
}

// NewResolver builds a Resolver from a configuration's rule sets.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		outputRules: cfg.OutputDevices,
		inputRules:  cfg.InputDevices,
	}
}

// SetRules replaces the rule sets in place, e.g. after a config hot
// reload. Current-device bookkeeping is left untouched.
func (r *Resolver) SetRules(outputRules, inputRules []config.DeviceRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputRules = outputRules
	r.inputRules = inputRules
}

// BestOutput returns the highest-scoring device compatible with Output
// among devices, or nil if none matches an enabled rule.
func (r *Resolver) BestOutput(devices []audio.Device) *audio.Device {
	r.mu.Lock()
	rules := r.outputRules
	r.mu.Unlock()
	return bestDevice(devices, rules, audio.Output)
}

// BestInput mirrors BestOutput for Input.
func (r *Resolver) BestInput(devices []audio.Device) *audio.Device {
	r.mu.Lock()
	rules := r.inputRules
	r.mu.Unlock()
	return bestDevice(devices, rules, audio.Input)
}

func bestDevice(devices []audio.Device, rules []config.DeviceRule, dir audio.Direction) *audio.Device {
	var best *audio.Device
	var bestScore uint32

	for i := range devices {
		d := devices[i]
		if !d.Direction.Accepts(dir) {
			continue
		}

		score, matched := score(rules, d.Name)
		if !matched {
			continue
		}
		if best == nil || score > bestScore {
			picked := d
			best = &picked
			bestScore = score
		}
	}
	return best
}

// score returns the highest weight among rules matching name, and whether
// any rule matched at all.
func score(rules []config.DeviceRule, name string) (uint32, bool) {
	var best uint32
	matched := false
	for _, rule := range rules {
		if Matches(rule, name) {
			matched = true
			if rule.Weight > best {
				best = rule.Weight
			}
		}
	}
	return best, matched
}

// ShouldSwitchOutput reports whether new is different from the last
// device UpdateCurrentOutput recorded (or true if none was recorded yet).
func (r *Resolver) ShouldSwitchOutput(newDevice audio.Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentOutput == nil || *r.currentOutput != newDevice.Name
}

// ShouldSwitchInput mirrors ShouldSwitchOutput for input.
func (r *Resolver) ShouldSwitchInput(newDevice audio.Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentInput == nil || *r.currentInput != newDevice.Name
}

// UpdateCurrentOutput records the name of the device now believed to be
// the active output default.
func (r *Resolver) UpdateCurrentOutput(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentOutput = &name
}

// UpdateCurrentInput mirrors UpdateCurrentOutput for input.
func (r *Resolver) UpdateCurrentInput(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentInput = &name
}
