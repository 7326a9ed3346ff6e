package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/discovery"
	"github.com/piratelabs/seanet/internal/logging"
	"github.com/piratelabs/seanet/internal/netstate"
	"github.com/piratelabs/seanet/internal/reconcile"
)

// Command flags
var (
	configPath     string
	journalPath    string
	ifaceOverride  string
	timeoutSeconds int
	outputFormat   string
	noApply        bool
	announce       bool
	debounceMillis int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $SEANET_CONFIG or well-known locations)")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", config.DefaultJournalPath, "Run journal path")
	rootCmd.PersistentFlags().StringVar(&ifaceOverride, "interface", "", "Wireless interface override")
	rootCmd.PersistentFlags().IntVar(&timeoutSeconds, "timeout", 20, "Activation timeout in seconds")

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(hotspotCmd)
	rootCmd.AddCommand(watchCmd)
}

// reconcileCmd performs one reconciliation pass
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation pass",
	Long: `Run one reconciliation pass against live network state.

Reads the configuration file, ensures both connection profiles exist,
patches credentials and autoconnect selection, and activates the desired
profile when anything changed. If the management network cannot be
activated within the timeout, the hotspot is brought up instead.

Exit status is 0 when the pass ends with a working profile (including the
hotspot-fallback case) and non-zero when the hotspot itself could not be
activated or the pass aborted.`,
	Example: `  # One pass with the on-device config
  seanet reconcile

  # One pass against a specific config file
  seanet reconcile --config ./seanet.cfg

  # Verbose pass
  SEANET_LOG_LEVEL=debug seanet reconcile`,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	cfg, err := loadDesired()
	if err != nil {
		return err
	}

	adapter, err := netstate.NewNetworkManager()
	if err != nil {
		return fmt.Errorf("failed to connect to NetworkManager: %w", err)
	}
	defer adapter.Close()

	res := runPass(adapter, cfg)
	printResult(res)

	if !res.Converged() {
		return res.Err
	}
	return nil
}

// runPass executes one pass and records it in the journal. Journal failures
// are reported but never change the pass outcome.
func runPass(adapter netstate.Adapter, cfg *config.DesiredConfig) *reconcile.Result {
	r := reconcile.New(adapter)
	r.ActivationTimeout = time.Duration(timeoutSeconds) * time.Second

	res := r.Run(cfg)

	journal, err := config.LoadJournal(journalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load journal: %v\n", err)
		journal = config.NewJournal()
	}
	journal.Append(res.JournalRun())
	if err := journal.Save(journalPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save journal: %v\n", err)
	}
	return res
}

func printResult(res *reconcile.Result) {
	switch {
	case res.Err != nil && res.Outcome == config.OutcomeAborted:
		fmt.Printf("✗ Pass aborted: %v\n", res.Err)
	case res.Err != nil:
		fmt.Printf("✗ Convergence failed: %v\n", res.Err)
	case res.FellBack:
		fmt.Printf("⚠ Management unreachable, fell back to hotspot (active: %s)\n", res.ActiveProfile)
	case res.Modified:
		fmt.Printf("✓ Converged to %s (active: %s)\n", res.Desired, res.ActiveProfile)
	default:
		fmt.Printf("✓ Already converged to %s, nothing to do\n", res.Desired)
	}
	if res.Connectivity != netstate.ConnectivityUnknown || res.Usable {
		fmt.Printf("  Connectivity: %s (usable: %v)\n", res.Connectivity, res.Usable)
	}
}

// statusCmd shows the last reconciliation outcomes and live state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show reconciliation status",
	Long: `Show the most recent reconciliation passes from the run journal and,
when NetworkManager is reachable, the interface's live profile binding and
connectivity classification.`,
	Example: `  # Human-readable status
  seanet status

  # JSON output for scripting
  seanet status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

type liveStatus struct {
	ActiveProfile string `json:"active_profile"`
	Connectivity  string `json:"connectivity"`
	Usable        bool   `json:"usable"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	journal, err := config.LoadJournal(journalPath)
	if err != nil {
		return err
	}

	cfg, err := loadDesired()
	if err != nil {
		return err
	}

	var live *liveStatus
	if adapter, err := netstate.NewNetworkManager(); err == nil {
		defer adapter.Close()
		current, _ := adapter.CurrentProfile(cfg.Interface)
		usable, level, _ := reconcile.NewProber(adapter).Usable(cfg.Interface)
		live = &liveStatus{
			ActiveProfile: current,
			Connectivity:  level.String(),
			Usable:        usable,
		}
	}

	if outputFormat == "json" {
		out := struct {
			Desired string       `json:"desired"`
			Live    *liveStatus  `json:"live,omitempty"`
			Runs    []config.Run `json:"runs"`
		}{string(cfg.Profile), live, journal.Runs}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Desired profile: %s (interface %s)\n", cfg.Profile, cfg.Interface)
	if live != nil {
		active := live.ActiveProfile
		if active == "" {
			active = "(none)"
		}
		fmt.Printf("Active profile:  %s\n", active)
		fmt.Printf("Connectivity:    %s (usable: %v)\n", live.Connectivity, live.Usable)
	} else {
		fmt.Println("Live state unavailable (NetworkManager not reachable)")
	}

	if len(journal.Runs) == 0 {
		fmt.Println("\nNo recorded passes.")
		return nil
	}

	fmt.Printf("\nRecent passes (%d):\n", len(journal.Runs))
	for i := len(journal.Runs) - 1; i >= 0; i-- {
		run := journal.Runs[i]
		line := fmt.Sprintf("  %s  %-9s  desired=%s", run.Time.Format(time.RFC3339), run.Outcome, run.Desired)
		if run.Fallback {
			line += "  (fallback)"
		}
		if run.Error != "" {
			line += "  error: " + run.Error
		}
		fmt.Println(line)
	}
	return nil
}

// joinCmd configures the management network and applies it
var joinCmd = &cobra.Command{
	Use:   "join <ssid>",
	Short: "Configure the management network",
	Long: `Store credentials for an existing network and switch the desired
profile to management.

The passphrase is prompted with echo disabled and written to the
configuration file alongside the SSID. Unless --no-apply is given, a
reconciliation pass runs immediately; if the network cannot be joined, the
device falls back to its hotspot.`,
	Example: `  # Join the office network (prompts for passphrase)
  seanet join Office

  # Store credentials without activating yet
  seanet join Office --no-apply`,
	Args: cobra.ExactArgs(1),
	RunE: runJoin,
}

func init() {
	joinCmd.Flags().BoolVar(&noApply, "no-apply", false, "Write configuration without running a reconciliation pass")
	hotspotCmd.Flags().BoolVar(&noApply, "no-apply", false, "Write configuration without running a reconciliation pass")
}

func runJoin(cmd *cobra.Command, args []string) error {
	ssid := args[0]

	fmt.Printf("Passphrase for %q: ", ssid)
	psk, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(psk) < 8 || len(psk) > 63 {
		return fmt.Errorf("WPA2 passphrase must be 8-63 characters, got %d", len(psk))
	}

	path := writableConfigPath()
	if err := config.SetManagementCredentials(path, ssid, string(psk)); err != nil {
		return err
	}
	fmt.Printf("Management network %q stored in %s\n", ssid, path)

	if noApply {
		return nil
	}
	return runReconcile(cmd, nil)
}

// hotspotCmd switches the desired profile back to the device's own network
var hotspotCmd = &cobra.Command{
	Use:   "hotspot",
	Short: "Switch the desired profile to hotspot",
	Long: `Set the desired profile to hotspot and apply it.

The stored management credentials are kept; 'seanet join' or editing the
configuration file switches back.`,
	Example: `  # Broadcast the device's own network again
  seanet hotspot`,
	RunE: runHotspot,
}

func runHotspot(cmd *cobra.Command, args []string) error {
	path := writableConfigPath()
	if err := config.SetProfile(path, config.ProfileHotspot); err != nil {
		return err
	}
	fmt.Printf("Desired profile set to hotspot in %s\n", path)

	if noApply {
		return nil
	}
	return runReconcile(cmd, nil)
}

// watchCmd runs passes continuously, triggered by config file changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile continuously on configuration changes",
	Long: `Run an initial reconciliation pass, then watch the configuration file
and re-run a pass whenever it changes.

Passes are serialized: a change arriving mid-pass queues exactly one
follow-up pass. With --announce the device registers a _seanet._tcp mDNS
service after each converged pass so operator tooling can find it.`,
	Example: `  # Watch the on-device config
  seanet watch

  # Watch with mDNS announcement
  seanet watch --announce`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&announce, "announce", false, "Register the device on mDNS after converged passes")
	watchCmd.Flags().IntVar(&debounceMillis, "debounce", 500, "Delay in milliseconds before reacting to a config change")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	path := resolveConfigPath()
	if path == "" {
		return fmt.Errorf("no config file to watch; set %s or create one", config.ConfigPathEnvVar)
	}

	adapter, err := netstate.NewNetworkManager()
	if err != nil {
		return fmt.Errorf("failed to connect to NetworkManager: %w", err)
	}
	defer adapter.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and scp replace the file, which drops a
	// watch on the file itself
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	var announcer *discovery.Announcer
	defer func() {
		if announcer != nil {
			announcer.Shutdown()
		}
	}()

	pass := func() {
		cfg, err := loadDesired()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping pass: %v\n", err)
			return
		}
		res := runPass(adapter, cfg)
		printResult(res)

		if announcer != nil {
			announcer.Shutdown()
			announcer = nil
		}
		if announce && res.Converged() {
			a, err := discovery.Announce(discovery.Announcement{
				Profile:   res.ActiveProfile,
				Interface: cfg.Interface,
				Fallback:  res.FellBack,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: mDNS announcement failed: %v\n", err)
			} else {
				announcer = a
			}
		}
	}

	pass()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	debounce := time.Duration(debounceMillis) * time.Millisecond
	var timer *time.Timer
	var timerC <-chan time.Time

	fmt.Printf("Watching %s for changes (Ctrl-C to stop)\n", path)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors fire several events per save
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			pass()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-sigs:
			fmt.Println("\nStopping.")
			return nil
		}
	}
}

// Helpers

// resolveConfigPath prefers the --config flag over environment and
// well-known locations.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ResolveConfigPath()
}

// writableConfigPath is resolveConfigPath with a concrete default for
// commands that create the file on a fresh device.
func writableConfigPath() string {
	if path := resolveConfigPath(); path != "" {
		return path
	}
	return config.DefaultConfigPath
}

// loadDesired builds the immutable desired configuration for one pass.
func loadDesired() (*config.DesiredConfig, error) {
	src, err := config.NewFileSource(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	cfg := config.Load(src)
	if ifaceOverride != "" {
		cfg.Interface = ifaceOverride
	}
	return cfg, nil
}
