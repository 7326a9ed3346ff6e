// Package config supplies the device's desired wireless identity and records
// reconciliation outcomes.
//
// # Configuration file
//
// Desired state comes from a human-editable INI file, resolved from the
// SEANET_CONFIG environment variable or a set of well-known on-device paths
// (/boot, /config, /etc/seanet). Every key has a built-in fallback, so a
// missing or partial file still yields a usable configuration. The factory
// default is the device's own hotspot (SSID "Sea"):
//
//	[network]
//	interface = wlan0
//	country = US
//	profile = hotspot
//
//	[hotspot]
//	ssid = Sea
//	psk = scallywag
//
//	[management]
//	ssid = Office
//	psk = secret123
//
// # Desired state
//
// Load produces an immutable DesiredConfig snapshot for one reconciliation
// pass: country codes are upper-cased, unknown profile names normalize to
// hotspot, and WPA2 PSK length bounds are validated up front.
//
// # Run journal
//
// The Journal is a small YAML file recording recent pass outcomes for the
// status command and monitoring. It is purely informational and never stores
// credentials or desired state; the config file owns those.
package config
