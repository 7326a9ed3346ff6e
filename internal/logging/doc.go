// Package logging provides structured logging for seanet.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the reconciler. It provides both general logging
// functions and specialized functions for provisioning events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (attribute diffs, adapter calls)
//   - Info: Normal operations (profile updates, activations, probe results)
//   - Warn: Non-fatal issues (regulatory domain failures, fallback activation)
//   - Error: Fatal issues (bootstrap failures, unreachable fallback)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Reconcile pass complete",
//	    zap.String("run_id", runID),
//	    zap.String("profile", "management"),
//	    zap.Bool("modified", true),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
//	logging.LogProfileChange("management", "802-11-wireless.ssid", "credentials updated")
//	logging.LogActivation("hotspot", true, true, nil)
//	logging.LogConnectivity("wlan0", "limited", true)
//
// # Configuration
//
// Logging is silent by default so that one-shot service invocations produce no
// output unless asked to. Set SEANET_LOG_LEVEL to enable:
//
//	SEANET_LOG_LEVEL=debug seanet reconcile
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
