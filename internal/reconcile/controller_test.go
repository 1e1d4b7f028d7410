package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
	"github.com/pozitronik/audio-device-monitor-go/internal/notify"
	"github.com/pozitronik/audio-device-monitor-go/internal/policy"
)

type fakeSystem struct {
	devices    []audio.Device
	setErr     error
	setCalls   []string
	defaultOut *audio.Device
	defaultIn  *audio.Device
}

func (f *fakeSystem) Enumerate(context.Context) ([]audio.Device, error) { return f.devices, nil }
func (f *fakeSystem) GetDefault(_ context.Context, dir audio.Direction) (*audio.Device, error) {
	if dir == audio.Output {
		return f.defaultOut, nil
	}
	return f.defaultIn, nil
}
func (f *fakeSystem) SetDefault(_ context.Context, dir audio.Direction, name string) error {
	f.setCalls = append(f.setCalls, name)
	if f.setErr != nil {
		return f.setErr
	}
	d := audio.Device{Name: name, Direction: dir}
	if dir == audio.Output {
		f.defaultOut = &d
	} else {
		f.defaultIn = &d
	}
	return nil
}
func (f *fakeSystem) IsAvailable(context.Context, string) (bool, error) { return true, nil }
func (f *fakeSystem) OnChange(func()) (unsubscribe func())             { return func() {} }
func (f *fakeSystem) Close() error                                     { return nil }

type fakeSink struct {
	emitted []string
}

func (f *fakeSink) Emit(title, body string, category notify.Category) error {
	f.emitted = append(f.emitted, title)
	return nil
}

func newTestController(sys *fakeSystem, sink *fakeSink, outputRules []config.DeviceRule) *Controller {
	resolver := policy.NewResolver(&config.Config{OutputDevices: outputRules})
	return New(sys, resolver, sink, true, true)
}

func TestApplyDefaultSuccessUpdatesStateAndNotifies(t *testing.T) {
	sys := &fakeSystem{}
	sink := &fakeSink{}
	c := newTestController(sys, sink, nil)

	d := audio.Device{ID: "1", Name: "AirPods", Direction: audio.Output}
	if err := c.ApplyDefault(context.Background(), d, audio.Output, HigherPriority); err != nil {
		t.Fatalf("ApplyDefault: %v", err)
	}

	if len(sys.setCalls) != 1 || sys.setCalls[0] != "AirPods" {
		t.Errorf("setCalls = %v, want [AirPods]", sys.setCalls)
	}
	if len(sink.emitted) != 1 {
		t.Errorf("emitted = %v, want 1 notification", sink.emitted)
	}
}

func TestApplyDefaultFailureLeavesStateUnchangedAndNotifies(t *testing.T) {
	sys := &fakeSystem{setErr: errors.New("boom")}
	sink := &fakeSink{}
	c := newTestController(sys, sink, nil)

	d := audio.Device{ID: "1", Name: "AirPods", Direction: audio.Output}
	err := c.ApplyDefault(context.Background(), d, audio.Output, HigherPriority)
	if err == nil {
		t.Fatal("expected error")
	}

	c.mu.Lock()
	intended := c.intendedOutput
	c.mu.Unlock()
	if intended != nil {
		t.Error("expected intended state unchanged on failure")
	}
	if len(sink.emitted) != 1 {
		t.Errorf("emitted = %v, want 1 failure notification", sink.emitted)
	}
}

func TestHandleDeviceDisconnectedFallsBackToNextBest(t *testing.T) {
	rules := []config.DeviceRule{
		{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true},
		{Name: "MacBook", Weight: 10, MatchType: config.MatchContains, Enabled: true},
	}
	sys := &fakeSystem{}
	sink := &fakeSink{}
	c := newTestController(sys, sink, rules)

	airpods := audio.Device{ID: "1", Name: "AirPods", Direction: audio.Output}
	macbook := audio.Device{ID: "2", Name: "MacBook Pro Speakers", Direction: audio.Output}

	if err := c.ApplyDefault(context.Background(), airpods, audio.Output, HigherPriority); err != nil {
		t.Fatalf("seed ApplyDefault: %v", err)
	}

	c.HandleDeviceDisconnected(context.Background(), airpods, []audio.Device{macbook})

	c.mu.Lock()
	intended := c.intendedOutput
	c.mu.Unlock()
	if intended == nil || intended.Name != "MacBook Pro Speakers" {
		t.Errorf("intendedOutput = %+v, want MacBook Pro Speakers", intended)
	}
}

func TestCheckPreferencesReportsMismatch(t *testing.T) {
	rules := []config.DeviceRule{{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true}}
	sys := &fakeSystem{
		devices:    []audio.Device{{ID: "1", Name: "AirPods", Direction: audio.Output}},
		defaultOut: &audio.Device{ID: "2", Name: "MacBook Pro Speakers", Direction: audio.Output},
	}
	sink := &fakeSink{}
	c := newTestController(sys, sink, rules)

	status, err := c.CheckPreferences(context.Background())
	if err != nil {
		t.Fatalf("CheckPreferences: %v", err)
	}
	if status.OutputMatches {
		t.Error("expected OutputMatches false")
	}
	if status.PreferredOutput == nil || status.PreferredOutput.Name != "AirPods" {
		t.Errorf("PreferredOutput = %+v, want AirPods", status.PreferredOutput)
	}
}

func TestApplyPreferencesIssuesZeroCallsWhenAlreadyMatched(t *testing.T) {
	rules := []config.DeviceRule{{Name: "AirPods", Weight: 200, MatchType: config.MatchContains, Enabled: true}}
	sys := &fakeSystem{
		devices:    []audio.Device{{ID: "1", Name: "AirPods", Direction: audio.Output}},
		defaultOut: &audio.Device{ID: "1", Name: "AirPods", Direction: audio.Output},
	}
	sink := &fakeSink{}
	c := newTestController(sys, sink, rules)

	changes, err := c.ApplyPreferences(context.Background())
	if err != nil {
		t.Fatalf("ApplyPreferences: %v", err)
	}
	if changes.OutputChanged {
		t.Error("expected no output change when already matched")
	}
	if len(sys.setCalls) != 0 {
		t.Errorf("setCalls = %v, want none", sys.setCalls)
	}
}

func TestManualGraceWindow(t *testing.T) {
	sys := &fakeSystem{}
	c := newTestController(sys, &fakeSink{}, nil)

	now := time.Unix(0, 0)
	if c.InManualGraceWindow(now) {
		t.Error("expected no grace window before any manual switch")
	}

	c.NoteManualSwitch(now)
	if !c.InManualGraceWindow(now.Add(time.Millisecond)) {
		t.Error("expected grace window active immediately after a manual switch")
	}
}
