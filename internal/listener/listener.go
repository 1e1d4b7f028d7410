// Package listener implements the Device Change Listener: it subscribes
// to OS-level device-topology and default-endpoint notifications,
// translates them into internal events, diffs against the prior
// snapshot, and routes connect/disconnect/default-change events through
// the stability filter to the priority resolver and reconciliation
// controller.
package listener

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
	"github.com/pozitronik/audio-device-monitor-go/internal/reconcile"
	"github.com/pozitronik/audio-device-monitor-go/internal/stability"
)

// State is the Listener's owned bookkeeping (spec ListenerState):
// previous snapshot, first-appearance timestamps, and the known-id set
// the periodic safety check diffs against.
type State struct {
	Previous       map[string]audio.Device
	AppearanceTime map[string]time.Time
}

// NewState returns an empty ListenerState.
func NewState() *State {
	return &State{
		Previous:       map[string]audio.Device{},
		AppearanceTime: map[string]time.Time{},
	}
}

// KnownIDs returns a sorted snapshot of currently-known device ids, used
// by the periodic safety check to detect topology change.
func (s *State) KnownIDs() []string {
	ids := make([]string, 0, len(s.Previous))
	for id := range s.Previous {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Diff is the result of comparing a new enumeration against the prior
// snapshot.
type Diff struct {
	Added   []audio.Device
	Removed []audio.Device
	Current []audio.Device
}

// ComputeDiff replaces State's snapshot with current and returns what was
// added/removed, updating AppearanceTime bookkeeping along the way. now is
// injectable so callers (and their tests) control the clock.
func (s *State) ComputeDiff(current []audio.Device, now time.Time) Diff {
	currentByID := make(map[string]audio.Device, len(current))
	for _, d := range current {
		currentByID[d.Identity()] = d
	}

	var diff Diff
	diff.Current = current

	for id, d := range currentByID {
		if _, existed := s.Previous[id]; !existed {
			diff.Added = append(diff.Added, d)
			s.AppearanceTime[id] = now
		}
	}
	for id, d := range s.Previous {
		if _, stillPresent := currentByID[id]; !stillPresent {
			diff.Removed = append(diff.Removed, d)
			delete(s.AppearanceTime, id)
		}
	}

	s.Previous = currentByID
	return diff
}

// StableDevices returns the subset of devices whose stability predicate
// currently holds, using f to evaluate wireless pairing against the
// devices of a different direction in the candidate set.
func (s *State) StableDevices(f *stability.Filter, devices []audio.Device, now time.Time) []audio.Device {
	var stable []audio.Device
	for i, d := range devices {
		appearedAt, ok := s.AppearanceTime[d.Identity()]
		if !ok {
			continue
		}
		var siblings []string
		for j, other := range devices {
			if j != i && other.Direction != d.Direction {
				siblings = append(siblings, other.Name)
			}
		}
		if f.IsStable(d.Name, appearedAt, siblings) {
			stable = append(stable, d)
		}
	}
	return stable
}

// byDirection filters devices to those compatible with want.
func byDirection(devices []audio.Device, want audio.Direction) []audio.Device {
	var out []audio.Device
	for _, d := range devices {
		if d.Direction.Accepts(want) {
			out = append(out, d)
		}
	}
	return out
}

// Reconciler is the subset of reconcile.Controller used by Listener, kept
// narrow so unit tests can supply a fake.
type Reconciler interface {
	HandleDeviceConnected(ctx context.Context, device audio.Device, siblings []audio.Device)
	HandleDeviceDisconnected(ctx context.Context, device audio.Device, remaining []audio.Device)
	ApplyDefault(ctx context.Context, device audio.Device, dir audio.Direction, reason reconcile.SwitchReason) error
	IsIntendedDefault(dir audio.Direction, name string) bool
	NoteManualSwitch(now time.Time)
}

// Listener ties AudioSystem events to State, the stability Filter, the
// Resolver, and a Reconciler.
type Listener struct {
	system     audio.System
	state      *State
	filter     *stability.Filter
	resolver   *policy.Resolver
	reconciler Reconciler
	now        func() time.Time
}

// New builds a Listener.
func New(system audio.System, resolver *policy.Resolver, reconciler Reconciler) *Listener {
	l := &Listener{
		system:     system,
		state:      NewState(),
		resolver:   resolver,
		reconciler: reconciler,
		now:        time.Now,
	}
	// The filter reads the Listener's clock, so an injected now governs
	// stability as well as appearance times.
	l.filter = stability.WithClock(func() time.Time { return l.now() })
	return l
}

// HandleDeviceListChanged implements spec.md's on-device-list-event
// algorithm: re-enumerate, diff, update appearance times, compute the
// stable set, and ask the resolver for the best candidate per direction.
func (l *Listener) HandleDeviceListChanged(ctx context.Context) {
	current, err := l.system.Enumerate(ctx)
	if err != nil {
		log.Printf("listener: enumeration failed, dropping event: %v", err)
		return
	}

	now := l.now()
	diff := l.state.ComputeDiff(current, now)

	for _, d := range diff.Added {
		siblings := removeDevice(current, d)
		l.reconciler.HandleDeviceConnected(ctx, d, siblings)
	}
	for _, d := range diff.Removed {
		remaining := removeDevice(diff.Current, d)
		l.reconciler.HandleDeviceDisconnected(ctx, d, remaining)
	}

	stable := l.state.StableDevices(l.filter, current, now)
	stableOutput := byDirection(stable, audio.Output)
	stableInput := byDirection(stable, audio.Input)

	if best := l.resolver.BestOutput(stableOutput); best != nil && l.resolver.ShouldSwitchOutput(*best) {
		if err := l.reconciler.ApplyDefault(ctx, *best, audio.Output, reconcile.HigherPriority); err != nil {
			log.Printf("listener: apply output default failed: %v", err)
		}
	}
	if best := l.resolver.BestInput(stableInput); best != nil && l.resolver.ShouldSwitchInput(*best) {
		if err := l.reconciler.ApplyDefault(ctx, *best, audio.Input, reconcile.HigherPriority); err != nil {
			log.Printf("listener: apply input default failed: %v", err)
		}
	}
}

// HandleDefaultOutputChanged re-reads the current default output and
// records it with the resolver. If the new default doesn't match what
// the reconciler last applied itself, the change came from outside
// (user picked a device in the OS mixer) and starts the manual grace
// window.
func (l *Listener) HandleDefaultOutputChanged(ctx context.Context) {
	d, err := l.system.GetDefault(ctx, audio.Output)
	if err != nil || d == nil {
		return
	}
	if !l.reconciler.IsIntendedDefault(audio.Output, d.Name) {
		l.reconciler.NoteManualSwitch(l.now())
	}
	l.resolver.UpdateCurrentOutput(d.Name)
}

// HandleDefaultInputChanged mirrors HandleDefaultOutputChanged for input.
func (l *Listener) HandleDefaultInputChanged(ctx context.Context) {
	d, err := l.system.GetDefault(ctx, audio.Input)
	if err != nil || d == nil {
		return
	}
	if !l.reconciler.IsIntendedDefault(audio.Input, d.Name) {
		l.reconciler.NoteManualSwitch(l.now())
	}
	l.resolver.UpdateCurrentInput(d.Name)
}

// State exposes the Listener's ListenerState for the Service Loop's
// periodic safety check (known-id comparison).
func (l *Listener) State() *State { return l.state }

func removeDevice(devices []audio.Device, target audio.Device) []audio.Device {
	out := make([]audio.Device, 0, len(devices))
	for _, d := range devices {
		if d.Identity() != target.Identity() {
			out = append(out, d)
		}
	}
	return out
}
