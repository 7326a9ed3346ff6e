package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/logging"
	"github.com/piratelabs/seanet/internal/netstate"
)

const (
	// DefaultActivationTimeout bounds each profile activation attempt
	DefaultActivationTimeout = 20 * time.Second

	// selectedPriority is the autoconnect priority given to the profile that
	// should win unattended boots
	selectedPriority = "20"
)

// Reconciler converges live network state to a DesiredConfig. One pass runs
// to completion before another may start; the caller serializes invocations.
type Reconciler struct {
	adapter netstate.Adapter

	// ActivationTimeout bounds each activation attempt. Defaults to
	// DefaultActivationTimeout.
	ActivationTimeout time.Duration
}

// New returns a Reconciler driving the given adapter.
func New(adapter netstate.Adapter) *Reconciler {
	return &Reconciler{
		adapter:           adapter,
		ActivationTimeout: DefaultActivationTimeout,
	}
}

// Run executes one reconciliation pass: regulatory domain, profile
// bootstrap, credential diff, profile selection, and (only when something
// changed) activation with fallback. The returned Result is always non-nil;
// Result.Err carries abort and total-failure conditions.
func (r *Reconciler) Run(cfg *config.DesiredConfig) *Result {
	res := &Result{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Desired: cfg.Profile,
	}

	logging.Info("Reconcile pass starting",
		zap.String("run_id", res.RunID),
		zap.String("desired", string(cfg.Profile)),
		zap.String("interface", cfg.Interface),
	)

	// Best-effort: a wrong regulatory domain degrades the radio but never
	// blocks convergence
	r.applyRegulatoryDomain(cfg)

	if err := r.bootstrapProfiles(cfg); err != nil {
		res.Outcome = config.OutcomeAborted
		res.Err = fmt.Errorf("profile bootstrap failed: %w", err)
		return res
	}

	credsModified, err := r.reconcileCredentials(cfg)
	if err != nil {
		res.Outcome = config.OutcomeAborted
		res.Err = fmt.Errorf("credential reconciliation failed: %w", err)
		return res
	}

	selectionModified, err := r.selectProfile(cfg)
	if err != nil {
		res.Outcome = config.OutcomeAborted
		res.Err = fmt.Errorf("profile selection failed: %w", err)
		return res
	}

	res.Modified = credsModified || selectionModified

	if res.Modified {
		r.runActivation(cfg.Profile, res)
	} else {
		// Unmodified pass: no activation, no disruptive reconnects
		res.Outcome = config.OutcomeConverged
	}

	r.observeFinalState(cfg, res)

	logging.Info("Reconcile pass complete",
		zap.String("run_id", res.RunID),
		zap.Bool("modified", res.Modified),
		zap.Bool("fallback", res.FellBack),
		zap.String("active_profile", res.ActiveProfile),
		zap.String("outcome", string(res.Outcome)),
	)
	return res
}

// applyRegulatoryDomain aligns the wireless regulatory domain with
// configuration. Idempotent and best-effort: failures are logged, never
// fatal.
func (r *Reconciler) applyRegulatoryDomain(cfg *config.DesiredConfig) {
	current, err := r.adapter.RegulatoryDomain()
	if err != nil {
		logging.Warn("Failed to read regulatory domain", zap.Error(err))
		return
	}
	if strings.EqualFold(current, cfg.Country) {
		return
	}
	if err := r.adapter.SetRegulatoryDomain(cfg.Country); err != nil {
		logging.Warn("Failed to set regulatory domain",
			zap.String("current", current),
			zap.String("desired", cfg.Country),
			zap.Error(err),
		)
		return
	}
	logging.Info("Regulatory domain updated",
		zap.String("from", current),
		zap.String("to", cfg.Country),
	)
}

// reconcileCredentials patches each profile's stored SSID/PSK when the
// corresponding desired pair is fully specified and differs from the live
// value. Comparison is exact-string; the PSK diff reads the unmasked secret.
func (r *Reconciler) reconcileCredentials(cfg *config.DesiredConfig) (bool, error) {
	modified := false

	pairs := []struct {
		profile string
		ssid    string
		psk     string
		set     bool
	}{
		{string(config.ProfileHotspot), cfg.HotspotSSID, cfg.HotspotPSK, cfg.HotspotConfigured()},
		{string(config.ProfileManagement), cfg.ManagementSSID, cfg.ManagementPSK, cfg.ManagementConfigured()},
	}

	for _, p := range pairs {
		if !p.set {
			// A half-specified or absent pair never overwrites stored
			// credentials; management stays in its bootstrap state
			continue
		}

		liveSSID, err := r.adapter.GetAttribute(p.profile, netstate.AttrSSID)
		if err != nil {
			return modified, err
		}
		if liveSSID != p.ssid {
			if err := r.adapter.SetAttribute(p.profile, netstate.AttrSSID, p.ssid); err != nil {
				return modified, err
			}
			logging.LogProfileChange(p.profile, netstate.AttrSSID, "ssid updated")
			modified = true
		}

		livePSK, err := r.adapter.GetSecret(p.profile, netstate.AttrPSK)
		if err != nil {
			return modified, err
		}
		if livePSK != p.psk {
			if err := r.adapter.SetAttribute(p.profile, netstate.AttrPSK, p.psk); err != nil {
				return modified, err
			}
			logging.LogProfileChange(p.profile, netstate.AttrPSK, "psk updated")
			modified = true
		}
	}

	return modified, nil
}

// selectProfile flips autoconnect toward the desired profile when the
// interface is currently bound to something else. The autoconnect flags
// guarantee the right profile wins the next unattended boot regardless of
// what immediate activation achieves.
func (r *Reconciler) selectProfile(cfg *config.DesiredConfig) (bool, error) {
	want := string(cfg.Profile)
	other := string(cfg.Profile.Other())

	current, err := r.adapter.CurrentProfile(cfg.Interface)
	if err != nil {
		return false, err
	}
	if current == want {
		return false, nil
	}

	steps := []struct {
		profile string
		attr    string
		value   string
	}{
		{want, netstate.AttrAutoconnect, "yes"},
		{want, netstate.AttrAutoconnectPriority, selectedPriority},
		{other, netstate.AttrAutoconnect, "no"},
		{other, netstate.AttrAutoconnectPriority, "0"},
	}
	for _, s := range steps {
		if err := r.adapter.SetAttribute(s.profile, s.attr, s.value); err != nil {
			return false, err
		}
	}

	logging.LogProfileChange(want, netstate.AttrAutoconnect, "selected for autoconnect")
	return true, nil
}

// observeFinalState records the interface's final profile binding and
// connectivity classification. Best-effort: this is operator signal, not a
// convergence check.
func (r *Reconciler) observeFinalState(cfg *config.DesiredConfig, res *Result) {
	if current, err := r.adapter.CurrentProfile(cfg.Interface); err == nil {
		res.ActiveProfile = current
	}

	prober := NewProber(r.adapter)
	usable, level, err := prober.Usable(cfg.Interface)
	if err != nil {
		logging.Warn("Connectivity probe failed", zap.Error(err))
		return
	}
	res.Connectivity = level
	res.Usable = usable
	logging.LogConnectivity(cfg.Interface, level.String(), usable)
}
