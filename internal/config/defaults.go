package config

const (
	// DefaultCheckIntervalMs is the OS event-loop quantum.
	DefaultCheckIntervalMs = 1000
	// DefaultPollIntervalMs is the periodic safety-check interval.
	DefaultPollIntervalMs = 30000
	// MinCheckIntervalMs is the floor check_interval_ms is clamped to.
	MinCheckIntervalMs = 100
	// DefaultLogLevel is used when log_level is absent.
	DefaultLogLevel = "info"
)

// CreateDefault returns the out-of-the-box configuration: notifications
// tuned down for device availability and up for switching actions, plus a
// starter rule set favoring AirPods over built-in speakers/microphone.
func CreateDefault() *Config {
	return &Config{
		General: GeneralConfig{
			CheckIntervalMs: DefaultCheckIntervalMs,
			PollIntervalMs:  DefaultPollIntervalMs,
			LogLevel:        DefaultLogLevel,
			DaemonMode:      false,
		},
		Notifications: NotificationConfig{
			ShowDeviceAvailability: false,
			ShowSwitchingActions:   true,
		},
		OutputDevices: []DeviceRule{
			{Name: "AirPods", Weight: 200, MatchType: MatchContains, Enabled: true},
			{Name: "MacBook Pro Speakers", Weight: 10, MatchType: MatchExact, Enabled: true},
		},
		InputDevices: []DeviceRule{
			{Name: "AirPods", Weight: 200, MatchType: MatchContains, Enabled: true},
			{Name: "MacBook Pro Microphone", Weight: 10, MatchType: MatchExact, Enabled: true},
		},
	}
}
