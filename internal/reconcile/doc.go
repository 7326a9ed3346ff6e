// Package reconcile converges the device's live wireless state to its
// declarative configuration.
//
// The device owns exactly two connection profiles on one interface:
// "hotspot" (the device broadcasts its own network) and "management" (the
// device joins an existing network). A reconciliation pass reads a fresh
// DesiredConfig, diffs it against live state through the netstate.Adapter,
// applies the minimal set of changes, and activates the selected profile
// with a bounded wait.
//
// # Pass structure
//
//  1. Regulatory domain: compare-and-set, best-effort.
//  2. Bootstrap: ensure both profiles exist (create with safe baselines,
//     at most once per device lifetime). Fatal on failure.
//  3. Credentials: patch stored SSID/PSK only when the desired pair is
//     fully specified and differs.
//  4. Selection: flip autoconnect (priority 20 vs. 0) toward the desired
//     profile when the interface is bound to something else, so the right
//     profile wins the next unattended boot.
//  5. Activation: only when steps 3 or 4 changed anything. Bring both
//     profiles down, bring the desired one up with a 20 second bound;
//     if management fails, fall back to the hotspot.
//
// # Guarantees
//
// Re-running an already-converged pass issues zero mutating adapter calls
// and performs no activation. Every pass ends with either the desired
// profile or the hotspot active, except when the hotspot itself cannot come
// up, which is the only condition surfaced as a process failure.
//
// # Concurrency
//
// Single-threaded and synchronous. The caller serializes passes; the package
// assumes no concurrent writer mutates the two profiles mid-pass.
package reconcile
