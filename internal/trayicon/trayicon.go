// Package trayicon provides the optional system tray front-end: a small
// menu showing the current output/input defaults and shortcuts to force
// reconciliation, reload configuration, and toggle autostart.
package trayicon

import (
	_ "embed"
	"log"

	"github.com/getlantern/systray"
)

//go:embed icon.ico
var iconData []byte

// Manager owns the systray icon and menu. It never touches audio,
// config, or reconciliation state directly; all of that is delegated to
// the callbacks passed to New.
type Manager struct {
	onReconcile       func() error
	onReloadConfig    func() error
	onToggleAutostart func() error
	quitCallback      func()

	menuOutput    *systray.MenuItem
	menuInput     *systray.MenuItem
	menuReconcile *systray.MenuItem
	menuReload    *systray.MenuItem
	menuAutostart *systray.MenuItem
	menuQuit      *systray.MenuItem

	readyChan       chan struct{}
	onReadyCallback func()
}

// New builds a tray Manager. Any callback may be nil, in which case its
// menu item is a no-op when clicked.
func New(onReconcile, onReloadConfig, onToggleAutostart func() error, onQuit func()) *Manager {
	return &Manager{
		onReconcile:       onReconcile,
		onReloadConfig:    onReloadConfig,
		onToggleAutostart: onToggleAutostart,
		quitCallback:      onQuit,
		readyChan:         make(chan struct{}),
	}
}

// Run starts the system tray. It blocks until Quit is clicked or
// Manager.Quit is called, so callers typically run it on the main
// goroutine and drive the rest of the application from OnReady.
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onQuit)
}

// OnReady registers a callback invoked once the tray icon is visible and
// the menu is built, on its own goroutine.
func (m *Manager) OnReady(callback func()) {
	m.onReadyCallback = callback
}

// WaitReady blocks until the tray has finished its ready callback.
func (m *Manager) WaitReady() {
	<-m.readyChan
}

// Quit stops the system tray.
func (m *Manager) Quit() {
	systray.Quit()
}

// SetStatus updates the informational (unclickable) menu lines showing
// the currently observed output/input defaults.
func (m *Manager) SetStatus(outputName, inputName string) {
	if m.menuOutput != nil {
		m.menuOutput.SetTitle("Output: " + outputName)
	}
	if m.menuInput != nil {
		m.menuInput.SetTitle("Input: " + inputName)
	}
}

// SetAutostartLabel flips the autostart menu item's label to reflect
// whether autostart is currently enabled.
func (m *Manager) SetAutostartLabel(enabled bool) {
	if m.menuAutostart == nil {
		return
	}
	if enabled {
		m.menuAutostart.SetTitle("Disable Autostart")
	} else {
		m.menuAutostart.SetTitle("Enable Autostart")
	}
}

func (m *Manager) onReady() {
	systray.SetIcon(getIcon())
	systray.SetTitle("Audio Device Monitor")
	systray.SetTooltip("Audio Device Monitor - automatic default device switching")

	m.menuOutput = systray.AddMenuItem("Output: (unknown)", "Current default output device")
	m.menuOutput.Disable()
	m.menuInput = systray.AddMenuItem("Input: (unknown)", "Current default input device")
	m.menuInput.Disable()
	systray.AddSeparator()

	m.menuReconcile = systray.AddMenuItem("Reconcile Now", "Re-apply priority rules immediately")
	m.menuReload = systray.AddMenuItem("Reload Config", "Reload configuration from disk")
	m.menuAutostart = systray.AddMenuItem("Enable Autostart", "Toggle starting this agent at login")
	systray.AddSeparator()
	m.menuQuit = systray.AddMenuItem("Quit", "Exit Audio Device Monitor")

	close(m.readyChan)

	if m.onReadyCallback != nil {
		go m.onReadyCallback()
	}

	go m.handleMenuClicks()
}

func (m *Manager) onQuit() {
	if m.quitCallback != nil {
		m.quitCallback()
	}
}

func (m *Manager) handleMenuClicks() {
	for {
		select {
		case <-m.menuReconcile.ClickedCh:
			m.runCallback("reconcile", m.onReconcile)
		case <-m.menuReload.ClickedCh:
			m.runCallback("reload config", m.onReloadConfig)
		case <-m.menuAutostart.ClickedCh:
			m.runCallback("toggle autostart", m.onToggleAutostart)
		case <-m.menuQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (m *Manager) runCallback(label string, fn func() error) {
	if fn == nil {
		return
	}
	if err := fn(); err != nil {
		log.Printf("trayicon: %s failed: %v", label, err)
	}
}

func getIcon() []byte {
	if len(iconData) > 0 {
		return iconData
	}
	log.Println("trayicon: no embedded icon found, using default system icon")
	return []byte{}
}
