package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/piratelabs/seanet/internal/logging"
)

// Profile identifies which of the two logical connection profiles the device
// should run.
type Profile string

const (
	// ProfileHotspot broadcasts the device's own access point
	ProfileHotspot Profile = "hotspot"
	// ProfileManagement joins an existing network as a client
	ProfileManagement Profile = "management"
)

// ParseProfile normalizes a configured profile name. Unrecognized values
// normalize to hotspot so that a typo in the config file can never strand
// the device on an unusable profile.
func ParseProfile(value string) Profile {
	if strings.ToLower(strings.TrimSpace(value)) == string(ProfileManagement) {
		return ProfileManagement
	}
	return ProfileHotspot
}

// Other returns the complement of a profile.
func (p Profile) Other() Profile {
	if p == ProfileManagement {
		return ProfileHotspot
	}
	return ProfileManagement
}

// DesiredConfig is the device's desired wireless identity for one
// reconciliation pass. Immutable once loaded; each pass loads a fresh copy.
type DesiredConfig struct {
	// Interface is the physical wireless interface to manage
	Interface string `validate:"required"`

	// Country is the 2-letter wireless regulatory domain code, uppercase
	Country string `validate:"required,len=2,alpha"`

	// Profile is the profile the device should converge to
	Profile Profile

	// HotspotSSID and HotspotPSK are the access point identity. The stored
	// hotspot credentials are only overwritten when both are non-empty.
	HotspotSSID string
	HotspotPSK  string `validate:"omitempty,min=8,max=63"`

	// ManagementSSID and ManagementPSK identify the network to join in
	// management mode. Both empty means management is not configured.
	ManagementSSID string
	ManagementPSK  string `validate:"omitempty,min=8,max=63"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a DesiredConfig from a Source, applying normalization and
// sanitization: the country code is upper-cased, unrecognized profiles
// become hotspot, and fields that fail validation degrade to the built-in
// defaults with a warning. A config mistake never blocks a pass; the worst
// a bad credential can cause is an activation failure, which the fallback
// machine already handles.
func Load(src Source) *DesiredConfig {
	get := func(section, key string) string {
		value, _ := src.Get(section, key)
		return value
	}

	cfg := &DesiredConfig{
		Interface:      get("network", "interface"),
		Country:        strings.ToUpper(get("network", "country")),
		Profile:        ParseProfile(get("network", "profile")),
		HotspotSSID:    get("hotspot", "ssid"),
		HotspotPSK:     get("hotspot", "psk"),
		ManagementSSID: get("management", "ssid"),
		ManagementPSK:  get("management", "psk"),
	}
	cfg.sanitize()
	return cfg
}

// sanitize repairs fields that fail structural validation. WPA2 bounds a
// PSK to 8..63 characters; an out-of-range PSK clears its credential pair
// so the stored (working) credentials are left alone, a bad country code
// falls back to the default, and a missing interface falls back to the
// default. Secret values are never logged, only the field name.
func (c *DesiredConfig) sanitize() {
	err := validate.Struct(c)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Cannot happen for a struct pointer; keep the config usable anyway
		return
	}

	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Interface":
			c.Interface = defaults["network"]["interface"]
			logging.Warn("Ignoring invalid interface, using default",
				zap.String("default", c.Interface))
		case "Country":
			c.Country = defaults["network"]["country"]
			logging.Warn("Ignoring invalid country code, using default",
				zap.String("default", c.Country))
		case "HotspotPSK":
			c.HotspotSSID, c.HotspotPSK = "", ""
			logging.Warn("Ignoring hotspot credentials with invalid psk, keeping stored credentials",
				zap.String("constraint", fe.Tag()))
		case "ManagementPSK":
			c.ManagementSSID, c.ManagementPSK = "", ""
			logging.Warn("Ignoring management credentials with invalid psk, keeping stored credentials",
				zap.String("constraint", fe.Tag()))
		}
	}
}

// HotspotConfigured reports whether the desired hotspot credential pair is
// fully specified.
func (c *DesiredConfig) HotspotConfigured() bool {
	return c.HotspotSSID != "" && c.HotspotPSK != ""
}

// ManagementConfigured reports whether the desired management credential
// pair is fully specified.
func (c *DesiredConfig) ManagementConfigured() bool {
	return c.ManagementSSID != "" && c.ManagementPSK != ""
}
