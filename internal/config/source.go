package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// ConfigPathEnvVar overrides the configuration file location when set
const ConfigPathEnvVar = "SEANET_CONFIG"

// Well-known configuration file locations, in resolution order. The boot
// partition copy is the one end users edit from another machine.
var configSearchPaths = []string{
	"/boot/seanet.cfg",
	"/config/seanet.cfg",
	"/etc/seanet/seanet.cfg",
}

// DefaultConfigPath is where commands that write configuration create the
// file when no existing one is found.
const DefaultConfigPath = "/etc/seanet/seanet.cfg"

// Built-in fallback values. A missing file or key is never fatal: the device
// must always be able to come up as its factory hotspot.
var defaults = map[string]map[string]string{
	"network": {
		"interface": "wlan0",
		"country":   "US",
		"profile":   "hotspot",
	},
	"hotspot": {
		"ssid": "Sea",
		"psk":  "scallywag",
	},
	// management has no defaults: absent means "not configured"
	"management": {},
}

// Source supplies resolved key/value settings. Implementations must apply
// their own fallback defaults; Get reports absent only when neither the
// backing store nor the defaults carry the key.
type Source interface {
	Get(section string, key string) (string, bool)
}

// FileSource is a Source backed by an INI file layered over the built-in
// defaults.
type FileSource struct {
	path string
	file *ini.File
}

// ResolveConfigPath returns the configuration file path to use: the
// SEANET_CONFIG environment variable if set, otherwise the first well-known
// location that exists, otherwise "" (defaults only).
func ResolveConfigPath() string {
	if env := os.Getenv(ConfigPathEnvVar); env != "" {
		return env
	}
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// NewFileSource loads the INI file at path. An empty path or a missing file
// yields a Source serving only the built-in defaults. A file that exists but
// cannot be parsed is an error: silently ignoring a corrupt config would
// mask operator mistakes.
func NewFileSource(path string) (*FileSource, error) {
	src := &FileSource{path: path}
	if path == "" {
		return src, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return src, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	src.file = file
	return src, nil
}

// Path returns the backing file path, or "" when running on defaults only.
func (s *FileSource) Path() string {
	return s.path
}

// Get returns the value for section/key from the file, falling back to the
// built-in defaults. The second return is false only when the key is absent
// from both.
func (s *FileSource) Get(section string, key string) (string, bool) {
	if s.file != nil {
		if sec := s.file.Section(section); sec.HasKey(key) {
			value := sec.Key(key).String()
			if value != "" {
				return value, true
			}
		}
	}
	if sectionDefaults, ok := defaults[section]; ok {
		if value, ok := sectionDefaults[key]; ok {
			return value, true
		}
	}
	return "", false
}

// SetManagementCredentials writes the management SSID/PSK pair into the
// configuration file at path, creating the file if needed. Used by the join
// command; the reconciler itself never writes configuration.
func SetManagementCredentials(path string, ssid string, psk string) error {
	return updateFile(path, func(file *ini.File) {
		section := file.Section("management")
		section.Key("ssid").SetValue(ssid)
		section.Key("psk").SetValue(psk)
		file.Section("network").Key("profile").SetValue(string(ProfileManagement))
	})
}

// SetProfile writes the desired profile into the configuration file at path.
func SetProfile(path string, profile Profile) error {
	return updateFile(path, func(file *ini.File) {
		file.Section("network").Key("profile").SetValue(string(profile))
	})
}

func updateFile(path string, mutate func(*ini.File)) error {
	if path == "" {
		return fmt.Errorf("no config file path resolved; set %s or create %s",
			ConfigPathEnvVar, configSearchPaths[0])
	}

	file := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		loaded, err := ini.Load(path)
		if err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		file = loaded
	}

	mutate(file)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := file.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}
