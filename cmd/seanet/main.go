// Seanet provisions a single-board device's wireless identity from a
// declarative configuration file.
//
// It reconciles the desired profile (hotspot or management) against live
// NetworkManager state: creating the two connection profiles if missing,
// patching credentials, flipping autoconnect, and activating the selected
// profile with an automatic fallback to the hotspot so the device is never
// left unreachable.
//
// Usage:
//
//	seanet [command] [flags]
//
// Running without arguments performs one reconciliation pass.
// See 'seanet --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piratelabs/seanet/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seanet",
	Short: "Declarative Wi-Fi provisioning for seanet devices",
	Long: `Seanet converges a device's wireless identity to its configuration file.

The device owns two connection profiles on one wireless interface:
"hotspot" (broadcast its own network) and "management" (join an existing
network). Each invocation performs one reconciliation pass; if the
management network cannot be activated, the device falls back to its own
hotspot rather than going dark.

If no command is specified, a single reconciliation pass runs.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: one reconciliation pass
		return runReconcile(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("seanet %s (commit: %s)\n", version.Version, version.Commit)
	},
}
