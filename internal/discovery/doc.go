// Package discovery announces the device on the local network via mDNS.
//
// After a reconciliation pass converges, the device can register a
// "_seanet._tcp" service whose TXT records carry the active profile, the
// managed interface, and whether the device is on its fallback hotspot.
// Operator tooling browses for the service instead of guessing addresses,
// which matters most in hotspot mode where the device hands out its own
// leases.
//
// Registration is optional and held open only by the long-running watch
// command (its --announce flag); a one-shot pass exits immediately and the
// record would vanish with it.
package discovery
