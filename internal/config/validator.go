package config

// validate clamps and sanity-checks a loaded configuration in place,
// matching the teacher's clamp-and-warn idiom (internal/config/validator.go)
// rather than rejecting the whole file for a single out-of-range field.
func validate(c *Config) {
	if c.General.CheckIntervalMs < MinCheckIntervalMs {
		c.General.CheckIntervalMs = MinCheckIntervalMs
	}
	if c.General.PollIntervalMs < c.General.CheckIntervalMs {
		c.General.PollIntervalMs = c.General.CheckIntervalMs
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = DefaultLogLevel
	}
}
