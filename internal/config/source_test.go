package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seanet.cfg")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestFileSourceDefaultsOnly(t *testing.T) {
	src, err := NewFileSource("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		section  string
		key      string
		expected string
		present  bool
	}{
		{"network", "interface", "wlan0", true},
		{"network", "country", "US", true},
		{"network", "profile", "hotspot", true},
		{"hotspot", "ssid", "Sea", true},
		{"hotspot", "psk", "scallywag", true},
		{"management", "ssid", "", false},
		{"management", "psk", "", false},
		{"network", "bogus", "", false},
	}

	for _, tt := range tests {
		value, ok := src.Get(tt.section, tt.key)
		if ok != tt.present || value != tt.expected {
			t.Errorf("Get(%q, %q) = (%q, %v), want (%q, %v)",
				tt.section, tt.key, value, ok, tt.expected, tt.present)
		}
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "does-not-exist.cfg"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if value, ok := src.Get("network", "interface"); !ok || value != "wlan0" {
		t.Errorf("expected default interface, got (%q, %v)", value, ok)
	}
}

func TestFileSourceOverridesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
[network]
interface = wlan1
profile = management

[management]
ssid = Office
psk = secret123
`)

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if value, _ := src.Get("network", "interface"); value != "wlan1" {
		t.Errorf("expected file value wlan1, got %q", value)
	}
	// Keys absent from the file fall back to defaults
	if value, _ := src.Get("network", "country"); value != "US" {
		t.Errorf("expected default country US, got %q", value)
	}
	if value, _ := src.Get("hotspot", "ssid"); value != "Sea" {
		t.Errorf("expected default hotspot ssid Sea, got %q", value)
	}
	if value, ok := src.Get("management", "ssid"); !ok || value != "Office" {
		t.Errorf("expected management ssid Office, got (%q, %v)", value, ok)
	}
}

func TestFileSourceCorruptFile(t *testing.T) {
	path := writeTestConfig(t, "[network\nnot ini at all ===")
	if _, err := NewFileSource(path); err == nil {
		t.Fatal("expected error for corrupt config file")
	}
}

func TestSetManagementCredentials(t *testing.T) {
	path := writeTestConfig(t, "[network]\nprofile = hotspot\n")

	if err := SetManagementCredentials(path, "Office", "secret123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, _ := src.Get("management", "ssid"); value != "Office" {
		t.Errorf("expected ssid Office, got %q", value)
	}
	if value, _ := src.Get("management", "psk"); value != "secret123" {
		t.Errorf("expected psk secret123, got %q", value)
	}
	// join also flips the desired profile
	if value, _ := src.Get("network", "profile"); value != "management" {
		t.Errorf("expected profile management, got %q", value)
	}
}

func TestSetProfileCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "seanet.cfg")

	if err := SetProfile(path, ProfileHotspot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value, _ := src.Get("network", "profile"); value != "hotspot" {
		t.Errorf("expected profile hotspot, got %q", value)
	}
}

func TestSetProfileNoPath(t *testing.T) {
	if err := SetProfile("", ProfileHotspot); err == nil {
		t.Fatal("expected error when no config path is resolved")
	}
}

func TestResolveConfigPathEnvOverride(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "/tmp/custom-seanet.cfg")
	if got := ResolveConfigPath(); got != "/tmp/custom-seanet.cfg" {
		t.Errorf("expected env override, got %q", got)
	}
}
