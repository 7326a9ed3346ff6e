// Package wireless provides low-level wireless stack access for seanet.
//
// The package currently covers one concern: reading and writing the global
// regulatory domain via the nl80211 generic netlink family. It talks to the
// kernel directly instead of shelling out to iw, so there is no output
// parsing and no locale fragility.
//
// # Usage
//
//	reg := wireless.NewRegDomain()
//	current, err := reg.Get()
//	if err == nil && current != "US" {
//	    err = reg.Set("US")
//	}
//
// Setting the regulatory domain affects allowed channels and transmit power
// immediately. Callers treat failures as best-effort: a device with a
// misconfigured domain is degraded, not unreachable.
package wireless
