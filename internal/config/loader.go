package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const configDirName = "audio-device-monitor"
const configFileName = "config.toml"

// DefaultPath returns the per-user configuration path,
// $XDG_CONFIG_HOME-or-platform-equivalent/audio-device-monitor/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, configDirName, configFileName), nil
}

// Exists reports whether a configuration file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ModifiedAt returns the configuration file's last modification time.
func ModifiedAt(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// MkdirParents creates path's parent directory tree if missing.
func MkdirParents(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// Load reads and parses the configuration at path. A missing file is not
// an error: it triggers creation (and, best-effort, persistence) of a
// default configuration. Directory-creation and save failures while
// bootstrapping a default configuration are logged and degrade to an
// in-memory default rather than failing startup.
func Load(path string) (*Config, error) {
	if !Exists(path) {
		log.Printf("config: no file at %s, creating default configuration", path)
		return createDefault(path), nil
	}

	var raw Config
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, &Error{Op: "parse", Path: path, Err: err}
	}

	raw.Notifications = migrateNotifications(raw.Notifications, meta.IsDefined("notifications", "show_device_availability"))
	validate(&raw)

	return &raw, nil
}

// Save writes config to path atomically: encode to a sibling temp file,
// then rename over the target. This avoids leaving a half-written file
// behind if the process is killed mid-write.
func Save(path string, c *Config) error {
	if err := MkdirParents(path); err != nil {
		return &Error{Op: "mkdir", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml.tmp")
	if err != nil {
		return &Error{Op: "create-temp", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	enc := toml.NewEncoder(tmp)
	if err := enc.Encode(c); err != nil {
		tmp.Close()
		return &Error{Op: "encode", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Op: "close-temp", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &Error{Op: "rename", Path: path, Err: err}
	}
	return nil
}

func createDefault(path string) *Config {
	c := CreateDefault()

	if err := MkdirParents(path); err != nil {
		log.Printf("config: could not create directory for %s: %v; using in-memory default", path, err)
		return c
	}
	if err := Save(path, c); err != nil {
		log.Printf("config: could not save default config to %s: %v; using in-memory default", path, err)
		return c
	}
	log.Printf("config: wrote default configuration to %s", path)
	return c
}

// Error is a typed configuration failure, wrapping the underlying cause.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
