// Package config holds the on-disk configuration schema for the device
// monitor: general runtime knobs, notification filters, and the priority
// rule sets for output and input devices.
package config

// MatchType names a DeviceRule's matching strategy.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchContains   MatchType = "contains"
	MatchStartsWith MatchType = "startswith"
	MatchEndsWith   MatchType = "endswith"
	MatchRegex      MatchType = "regex"
)

// DeviceRule is a weighted name-matcher in the priority policy.
type DeviceRule struct {
	Name      string    `toml:"name"`
	Weight    uint32    `toml:"weight"`
	MatchType MatchType `toml:"match_type"`
	Enabled   bool      `toml:"enabled"`
}

// GeneralConfig holds runtime pacing and logging knobs.
type GeneralConfig struct {
	CheckIntervalMs uint64 `toml:"check_interval_ms"`
	PollIntervalMs  uint64 `toml:"poll_interval_ms"`
	LogLevel        string `toml:"log_level"`
	DaemonMode      bool   `toml:"daemon_mode"`
}

// NotificationConfig filters which notification categories are emitted.
//
// ShowDeviceChanges is the legacy field name; it is never written back to
// disk and exists purely to carry a value through unmarshal so the loader
// can migrate it into ShowDeviceAvailability.
type NotificationConfig struct {
	ShowDeviceAvailability bool `toml:"show_device_availability"`
	ShowSwitchingActions   bool `toml:"show_switching_actions"`

	ShowDeviceChanges *bool `toml:"show_device_changes,omitempty"`
}

// Config is the full on-disk configuration document.
type Config struct {
	General       GeneralConfig      `toml:"general"`
	Notifications NotificationConfig `toml:"notifications"`
	OutputDevices []DeviceRule       `toml:"output_devices"`
	InputDevices  []DeviceRule       `toml:"input_devices"`
}
