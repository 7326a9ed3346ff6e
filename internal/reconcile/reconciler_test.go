package reconcile

import (
	"testing"

	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/netstate"
)

func defaultConfig() *config.DesiredConfig {
	return &config.DesiredConfig{
		Interface:   "wlan0",
		Country:     "US",
		Profile:     config.ProfileHotspot,
		HotspotSSID: "Sea",
		HotspotPSK:  "scallywag",
	}
}

func managementConfig() *config.DesiredConfig {
	cfg := defaultConfig()
	cfg.Profile = config.ProfileManagement
	cfg.ManagementSSID = "Office"
	cfg.ManagementPSK = "secret123"
	return cfg
}

// convergedFake builds an adapter already matching cfg: both profiles
// bootstrapped with desired credentials, autoconnect pointing at the desired
// profile, interface bound to it, regulatory domain aligned.
func convergedFake(t *testing.T, cfg *config.DesiredConfig) *fakeAdapter {
	t.Helper()
	fake := newFakeAdapter()
	fake.regDomain = cfg.Country

	r := New(fake)
	if err := r.bootstrapProfiles(cfg); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if _, err := r.reconcileCredentials(cfg); err != nil {
		t.Fatalf("credential seed failed: %v", err)
	}
	fake.current = string(cfg.Profile)
	if _, err := r.selectProfile(cfg); err != nil {
		t.Fatalf("selection seed failed: %v", err)
	}

	fake.mutations = 0
	fake.activations = nil
	fake.deactivation = nil
	fake.regSetCalls = nil
	return fake
}

func TestRunBootstrapsProfiles(t *testing.T) {
	fake := newFakeAdapter()
	cfg := defaultConfig()

	res := New(fake).Run(cfg)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	hotspot, ok := fake.profiles["hotspot"]
	if !ok {
		t.Fatal("hotspot profile not created")
	}
	if hotspot.attrs[netstate.AttrMode] != netstate.ModeAccessPoint {
		t.Errorf("hotspot mode = %q, want ap", hotspot.attrs[netstate.AttrMode])
	}
	if hotspot.attrs[netstate.AttrIPv4Method] != netstate.IPv4Shared {
		t.Errorf("hotspot ipv4 = %q, want shared", hotspot.attrs[netstate.AttrIPv4Method])
	}
	if hotspot.attrs[netstate.AttrSSID] != "Sea" || hotspot.secrets[netstate.AttrPSK] != "scallywag" {
		t.Error("hotspot must bootstrap with the configured identity")
	}

	management, ok := fake.profiles["management"]
	if !ok {
		t.Fatal("management profile not created")
	}
	if management.attrs[netstate.AttrMode] != netstate.ModeClient {
		t.Errorf("management mode = %q, want infrastructure", management.attrs[netstate.AttrMode])
	}
	if management.attrs[netstate.AttrIPv4Method] != netstate.IPv4Auto {
		t.Errorf("management ipv4 = %q, want auto", management.attrs[netstate.AttrIPv4Method])
	}
	// Unconfigured management bootstraps with placeholder credentials that
	// cannot auto-join a real network
	if management.attrs[netstate.AttrSSID] != placeholderSSID {
		t.Errorf("management ssid = %q, want placeholder", management.attrs[netstate.AttrSSID])
	}
	if management.secrets[netstate.AttrPSK] != placeholderPSK {
		t.Error("management must bootstrap with placeholder psk")
	}
}

func TestRunIdempotentWhenConverged(t *testing.T) {
	cfg := defaultConfig()
	fake := convergedFake(t, cfg)

	res := New(fake).Run(cfg)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Modified {
		t.Error("converged pass must not report modifications")
	}
	if fake.mutations != 0 {
		t.Errorf("converged pass issued %d mutating calls, want 0", fake.mutations)
	}
	if len(fake.activations) != 0 {
		t.Errorf("converged pass attempted activations: %v", fake.activations)
	}
	if len(fake.deactivation) != 0 {
		t.Errorf("converged pass attempted deactivations: %v", fake.deactivation)
	}
	if res.Outcome != config.OutcomeConverged {
		t.Errorf("outcome = %q, want converged", res.Outcome)
	}
}

func TestCredentialPatchPrecision(t *testing.T) {
	cfg := managementConfig()
	fake := convergedFake(t, cfg)

	// Half-specified pair: stored credentials must not change
	half := *cfg
	half.ManagementPSK = ""
	r := New(fake)
	modified, err := r.reconcileCredentials(&half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modified || fake.mutations != 0 {
		t.Error("half-specified pair must not patch credentials")
	}
	if fake.profiles["management"].attrs[netstate.AttrSSID] != "Office" {
		t.Error("stored ssid must be untouched")
	}

	// Fully-specified differing pair patches both fields
	changed := *cfg
	changed.ManagementSSID = "Warehouse"
	changed.ManagementPSK = "newsecret99"
	modified, err = r.reconcileCredentials(&changed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !modified {
		t.Error("differing pair must mark the pass modified")
	}
	if fake.profiles["management"].attrs[netstate.AttrSSID] != "Warehouse" {
		t.Error("ssid not patched")
	}
	if fake.profiles["management"].secrets[netstate.AttrPSK] != "newsecret99" {
		t.Error("psk not patched")
	}
	// The hotspot pair was unchanged and must not be touched
	if fake.profiles["hotspot"].attrs[netstate.AttrSSID] != "Sea" {
		t.Error("hotspot credentials must be untouched")
	}
}

func TestCredentialDiffReadsSecret(t *testing.T) {
	cfg := managementConfig()
	fake := convergedFake(t, cfg)

	// Same SSID, different stored PSK: the diff must catch it via the
	// unmasked secret read
	fake.profiles["management"].secrets[netstate.AttrPSK] = "stale-psk-value"

	modified, err := New(fake).reconcileCredentials(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !modified {
		t.Error("psk drift must mark the pass modified")
	}
	if fake.profiles["management"].secrets[netstate.AttrPSK] != "secret123" {
		t.Error("psk not re-patched")
	}
}

func TestAutoconnectExclusivity(t *testing.T) {
	cfg := managementConfig()
	fake := convergedFake(t, defaultConfig())
	fake.profiles["management"].attrs[netstate.AttrSSID] = "Office"
	fake.profiles["management"].secrets[netstate.AttrPSK] = "secret123"
	fake.current = "hotspot"

	res := New(fake).Run(cfg)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Modified {
		t.Fatal("switching profiles must mark the pass modified")
	}

	management := fake.profiles["management"]
	hotspot := fake.profiles["hotspot"]
	if management.attrs[netstate.AttrAutoconnect] != "yes" ||
		management.attrs[netstate.AttrAutoconnectPriority] != "20" {
		t.Errorf("management autoconnect = %q/%q, want yes/20",
			management.attrs[netstate.AttrAutoconnect],
			management.attrs[netstate.AttrAutoconnectPriority])
	}
	if hotspot.attrs[netstate.AttrAutoconnect] != "no" ||
		hotspot.attrs[netstate.AttrAutoconnectPriority] != "0" {
		t.Errorf("hotspot autoconnect = %q/%q, want no/0",
			hotspot.attrs[netstate.AttrAutoconnect],
			hotspot.attrs[netstate.AttrAutoconnectPriority])
	}
}

func TestScenarioSwitchToManagement(t *testing.T) {
	// Live state: hotspot active, management unconfigured. Desired:
	// management with real credentials.
	fake := convergedFake(t, defaultConfig())
	fake.current = "hotspot"

	cfg := managementConfig()
	res := New(fake).Run(cfg)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	management := fake.profiles["management"]
	if management.attrs[netstate.AttrSSID] != "Office" ||
		management.secrets[netstate.AttrPSK] != "secret123" {
		t.Error("management profile not patched with configured credentials")
	}
	if management.attrs[netstate.AttrAutoconnect] != "yes" {
		t.Error("autoconnect not flipped to management")
	}
	if len(fake.deactivation) == 0 {
		t.Error("expected profiles brought down before activation")
	}
	if len(fake.activations) != 1 || fake.activations[0] != "management" {
		t.Errorf("activations = %v, want [management]", fake.activations)
	}
	if res.ActiveProfile != "management" {
		t.Errorf("final active profile = %q, want management", res.ActiveProfile)
	}
	if res.FellBack {
		t.Error("no fallback expected on success")
	}
	if res.Outcome != config.OutcomeConverged {
		t.Errorf("outcome = %q, want converged", res.Outcome)
	}
}

func TestScenarioManagementTimeoutFallsBack(t *testing.T) {
	fake := convergedFake(t, defaultConfig())
	fake.current = "hotspot"
	fake.activateErr["management"] = netstate.NewActivationTimeout("management", 20)

	res := New(fake).Run(managementConfig())

	// Fallback success is convergence: the device keeps a radio presence
	if res.Err != nil {
		t.Fatalf("fallback success must not be an error: %v", res.Err)
	}
	if !res.FellBack {
		t.Error("expected fallback")
	}
	if res.Outcome != config.OutcomeFallback {
		t.Errorf("outcome = %q, want fallback", res.Outcome)
	}
	if res.ActiveProfile != "hotspot" {
		t.Errorf("final active profile = %q, want hotspot", res.ActiveProfile)
	}
}

func TestRegulatoryDomainCompareAndSet(t *testing.T) {
	cfg := defaultConfig()
	cfg.Country = "GB"
	fake := convergedFake(t, defaultConfig())
	fake.regDomain = "US"

	New(fake).applyRegulatoryDomain(cfg)

	if len(fake.regSetCalls) != 1 || fake.regSetCalls[0] != "GB" {
		t.Errorf("regSetCalls = %v, want [GB]", fake.regSetCalls)
	}
}

func TestRegulatoryDomainCaseInsensitiveNoOp(t *testing.T) {
	cfg := defaultConfig()
	fake := convergedFake(t, cfg)
	fake.regDomain = "us"

	New(fake).applyRegulatoryDomain(cfg)

	if len(fake.regSetCalls) != 0 {
		t.Errorf("matching domain must not be re-set, got %v", fake.regSetCalls)
	}
}

func TestRegulatoryDomainFailureNonFatal(t *testing.T) {
	fake := newFakeAdapter()
	fake.regReadErr = netstate.NewRegulatoryDomainError("get", nil)

	res := New(fake).Run(defaultConfig())

	if res.Err != nil {
		t.Fatalf("regulatory domain failure must not abort the pass: %v", res.Err)
	}
}

func TestBootstrapFailureAborts(t *testing.T) {
	fake := newFakeAdapter()
	fake.createErr = netstate.NewProfileCreateError("hotspot", nil)

	res := New(fake).Run(defaultConfig())

	if res.Err == nil {
		t.Fatal("expected error when bootstrap fails")
	}
	if res.Outcome != config.OutcomeAborted {
		t.Errorf("outcome = %q, want aborted", res.Outcome)
	}
	if len(fake.activations) != 0 {
		t.Error("aborted pass must not attempt activation")
	}
}

func TestQueryErrorAborts(t *testing.T) {
	cfg := defaultConfig()
	fake := convergedFake(t, cfg)
	fake.currentErr = netstate.NewQueryError("current-profile", "bus unavailable", nil)

	res := New(fake).Run(cfg)

	if res.Err == nil {
		t.Fatal("expected error when live state cannot be read")
	}
	if res.Outcome != config.OutcomeAborted {
		t.Errorf("outcome = %q, want aborted", res.Outcome)
	}
	if len(fake.activations) != 0 {
		t.Error("aborted pass must not attempt activation")
	}
}

func TestJournalRunFromResult(t *testing.T) {
	fake := convergedFake(t, defaultConfig())
	fake.current = "hotspot"
	fake.activateErr["management"] = netstate.NewActivationTimeout("management", 20)

	res := New(fake).Run(managementConfig())
	run := res.JournalRun()

	if run.ID != res.RunID {
		t.Error("journal run must carry the pass id")
	}
	if run.Desired != "management" || !run.Fallback || run.Outcome != config.OutcomeFallback {
		t.Errorf("unexpected journal run: %+v", run)
	}
	if run.Error != "" {
		t.Errorf("fallback success must not record an error, got %q", run.Error)
	}
}
