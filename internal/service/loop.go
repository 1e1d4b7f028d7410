package service

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pozitronik/audio-device-monitor-go/internal/audio"
	"github.com/pozitronik/audio-device-monitor-go/internal/config"
	"github.com/pozitronik/audio-device-monitor-go/internal/listener"
	"github.com/pozitronik/audio-device-monitor-go/internal/reconcile"
)

// interruptGraceWindow bounds how long a second interrupt signal is
// treated as "the user really means it" and forces an immediate exit
// instead of waiting for the loop to notice the shutdown flag.
const interruptGraceWindow = 3 * time.Second

// Reconciler is the subset of reconcile.Controller the loop's periodic
// safety check depends on.
type Reconciler interface {
	InManualGraceWindow(now time.Time) bool
	ApplyPreferences(ctx context.Context) (reconcile.PreferenceChanges, error)
}

// Listener is the subset of listener.Listener the loop drives.
type Listener interface {
	HandleDeviceListChanged(ctx context.Context)
	HandleDefaultOutputChanged(ctx context.Context)
	HandleDefaultInputChanged(ctx context.Context)
	State() *listener.State
}

// Loop is the Service Loop: a single cooperative thread of control that
// paces device re-checks, runs the periodic safety net, and honors
// signals and configuration hot-reload.
type Loop struct {
	configPath string
	system     audio.System
	listener   Listener
	reconciler Reconciler
	resolver   ruleSetter
	controller notificationPolicySetter

	cfg             *config.Config
	checkInterval   time.Duration
	pollInterval    time.Duration
	lastConfigMtime time.Time
	lastPoll        time.Time

	shutdownRequested atomic.Bool
	reloadRequested   atomic.Bool
	lastInterruptAt   time.Time
}

// ruleSetter is the resolver method the loop calls on config reload.
type ruleSetter interface {
	SetRules(outputRules, inputRules []config.DeviceRule)
}

// notificationPolicySetter is the controller method the loop calls on
// config reload.
type notificationPolicySetter interface {
	SetNotificationPolicy(availability, switching bool)
}

// NewLoop wires a Service Loop around an already-loaded configuration and
// the components it drives. cfg must be the same configuration resolver
// and controller were built from.
func NewLoop(configPath string, cfg *config.Config, system audio.System, l Listener, reconciler Reconciler, resolver ruleSetter, controller notificationPolicySetter) *Loop {
	loop := &Loop{
		configPath: configPath,
		system:     system,
		listener:   l,
		reconciler: reconciler,
		resolver:   resolver,
		controller: controller,
		cfg:        cfg,
	}
	loop.applyIntervals(cfg)
	if mtime, err := config.ModifiedAt(configPath); err == nil {
		loop.lastConfigMtime = mtime
	}
	return loop
}

func (l *Loop) applyIntervals(cfg *config.Config) {
	l.checkInterval = time.Duration(cfg.General.CheckIntervalMs) * time.Millisecond
	l.pollInterval = time.Duration(cfg.General.PollIntervalMs) * time.Millisecond
}

// Run blocks until ctx is cancelled or a terminating signal is received.
// It registers OS signal handlers, subscribes to AudioSystem change
// events, primes bookkeeping with an initial sync, then paces the
// check_interval_ms loop described in the reconciliation design: reload
// check, periodic safety check, sleep.
func (l *Loop) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	unsubscribe := l.system.OnChange(func() {
		l.listener.HandleDeviceListChanged(ctx)
		l.listener.HandleDefaultOutputChanged(ctx)
		l.listener.HandleDefaultInputChanged(ctx)
	})
	defer unsubscribe()

	l.listener.HandleDeviceListChanged(ctx)
	l.lastPoll = time.Now()

	ticker := time.NewTicker(l.checkInterval)
	defer ticker.Stop()

	log.Printf("service: loop started (check_interval=%v poll_interval=%v)", l.checkInterval, l.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("service: context cancelled, shutting down")
			return ctx.Err()

		case sig := <-sigCh:
			l.handleSignal(sig)

		case <-ticker.C:
			if l.shutdownRequested.Load() {
				return nil
			}
			l.tick(ctx)
			ticker.Reset(l.checkInterval)
		}
	}
}

// handleSignal updates the atomic flags for a received signal. A second
// interrupt within interruptGraceWindow forces an immediate hard exit
// rather than waiting for the next ticker tick to notice the shutdown
// flag.
func (l *Loop) handleSignal(sig os.Signal) {
	if sig == syscall.SIGHUP {
		log.Println("service: SIGHUP received, scheduling config reload")
		l.reloadRequested.Store(true)
		return
	}

	now := time.Now()
	if !l.lastInterruptAt.IsZero() && now.Sub(l.lastInterruptAt) < interruptGraceWindow {
		log.Println("service: second interrupt within grace window, forcing immediate exit")
		os.Exit(130)
	}
	l.lastInterruptAt = now
	log.Printf("service: %v received, shutting down", sig)
	l.shutdownRequested.Store(true)
}

// tick runs one loop-body iteration: config reload (signal or
// file-modification driven), then the periodic safety check if
// poll_interval_ms has elapsed.
func (l *Loop) tick(ctx context.Context) {
	if l.reloadRequested.Swap(false) {
		l.reloadConfig()
	} else if mtime, err := config.ModifiedAt(l.configPath); err == nil && mtime.After(l.lastConfigMtime) {
		log.Println("service: configuration file changed on disk, reloading")
		l.reloadConfig()
	}

	now := time.Now()
	if now.Sub(l.lastPoll) >= l.pollInterval {
		l.periodicSafetyCheck(ctx, now)
		l.lastPoll = now
	}
}

// reloadConfig reloads configuration from disk and replaces rule sets
// and the notification filter in place. A changed check interval takes
// effect when Run resets its ticker after the current tick; device-level
// intended state is left untouched,
// since the policy is re-scored on every reconciliation anyway and
// nothing here strictly demands clearing it.
func (l *Loop) reloadConfig() {
	cfg, err := config.Load(l.configPath)
	if err != nil {
		log.Printf("service: config reload failed, keeping previous configuration: %v", err)
		return
	}

	l.cfg = cfg
	l.resolver.SetRules(cfg.OutputDevices, cfg.InputDevices)
	l.controller.SetNotificationPolicy(cfg.Notifications.ShowDeviceAvailability, cfg.Notifications.ShowSwitchingActions)

	if mtime, err := config.ModifiedAt(l.configPath); err == nil {
		l.lastConfigMtime = mtime
	}

	newCheckInterval := time.Duration(cfg.General.CheckIntervalMs) * time.Millisecond
	if newCheckInterval != l.checkInterval {
		l.checkInterval = newCheckInterval
		log.Printf("service: check_interval_ms changed, will take effect after current tick")
	}
	l.pollInterval = time.Duration(cfg.General.PollIntervalMs) * time.Millisecond

	log.Println("service: configuration reloaded")
}

// periodicSafetyCheck is the poll_interval_ms safety net: it compares
// the currently enumerated device ids against the listener's last-known
// set. An unchanged set means no topology drift was missed, and is left
// alone to preserve a user's manual selection. A changed set resyncs
// listener bookkeeping and, outside any active manual grace window,
// forces preferences back into alignment.
func (l *Loop) periodicSafetyCheck(ctx context.Context, now time.Time) {
	current, err := l.system.Enumerate(ctx)
	if err != nil {
		log.Printf("service: periodic safety check enumeration failed: %v", err)
		return
	}

	currentIDs := deviceIDs(current)
	knownIDs := l.listener.State().KnownIDs()
	if equalIDs(currentIDs, knownIDs) {
		return
	}

	l.listener.HandleDeviceListChanged(ctx)

	if l.reconciler.InManualGraceWindow(now) {
		log.Println("service: periodic safety check deferring to active manual grace window")
		return
	}

	changes, err := l.reconciler.ApplyPreferences(ctx)
	if err != nil {
		log.Printf("service: periodic safety check failed to apply preferences: %v", err)
		return
	}
	if changes.OutputChanged || changes.InputChanged {
		log.Printf("service: periodic safety check corrected drift (output=%v input=%v)", changes.OutputChanged, changes.InputChanged)
	}
}

func deviceIDs(devices []audio.Device) []string {
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.Identity()
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
	}
	for _, count := range seen {
		if count != 0 {
			return false
		}
	}
	return true
}
