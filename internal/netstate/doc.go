// Package netstate provides access to the live network configuration backend.
//
// The Adapter interface exposes everything the reconciler needs: named
// connection profiles (create, inspect, patch), the profile currently bound
// to an interface, bounded-wait activation, best-effort deactivation,
// connectivity classification, and the wireless regulatory domain.
//
// # Backend
//
// The production implementation, NetworkManager, binds to NetworkManager's
// D-Bus API on the system bus. It never shells out to nmcli or parses
// command output, so there is no locale or format fragility. The regulatory
// domain operations delegate to the wireless package (nl80211), since
// NetworkManager does not expose them.
//
// # Attribute keys
//
// Attributes use NetworkManager's dotted group.property naming, e.g.
// "802-11-wireless.ssid" or "connection.autoconnect". Boolean values read
// and write as "yes"/"no", integers as decimal strings. Secret attributes
// (the WPA2 PSK) must be read through GetSecret; GetSettings-style reads
// return them stripped.
//
// # Freshness
//
// Every read is a fresh snapshot. The backend is authoritative and external
// to the process: other writers (NetworkManager itself, link events) can
// change state between calls, so nothing is cached.
//
// # Errors
//
// All failures are reported as *AdapterError with a Kind matching the
// reconciler's error taxonomy. Use the Is* predicates rather than comparing
// kinds directly.
package netstate
