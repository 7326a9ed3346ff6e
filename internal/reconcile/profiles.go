package reconcile

import (
	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/logging"
	"github.com/piratelabs/seanet/internal/netstate"

	"go.uber.org/zap"
)

// Bootstrap placeholder credentials for the management profile. Chosen to be
// implausible as a real network so that a freshly bootstrapped profile cannot
// auto-join anything before the operator configures it. A real network that
// happened to use this exact SSID and PSK would be treated as pre-configured;
// accepted as a non-risk.
const (
	placeholderSSID = "seanet-unconfigured"
	placeholderPSK  = "seanet-placeholder-do-not-use"
)

// hotspotBaseline is the creation-time spec for the hotspot profile: the
// device broadcasts its own WPA2 network and serves addresses to clients.
func hotspotBaseline(cfg *config.DesiredConfig) netstate.ProfileSpec {
	ssid, psk := cfg.HotspotSSID, cfg.HotspotPSK
	if !cfg.HotspotConfigured() {
		// Defaults make this unreachable in practice, but the factory
		// identity is the safe floor if a source ever omits them
		ssid, psk = "Sea", "scallywag"
	}
	return netstate.ProfileSpec{
		Interface:           cfg.Interface,
		Mode:                netstate.ModeAccessPoint,
		SSID:                ssid,
		PSK:                 psk,
		IPv4Method:          netstate.IPv4Shared,
		Autoconnect:         false,
		AutoconnectPriority: 0,
	}
}

// managementBaseline is the creation-time spec for the management profile:
// client mode with deliberately unusable placeholder credentials until real
// ones are configured.
func managementBaseline(cfg *config.DesiredConfig) netstate.ProfileSpec {
	return netstate.ProfileSpec{
		Interface:           cfg.Interface,
		Mode:                netstate.ModeClient,
		SSID:                placeholderSSID,
		PSK:                 placeholderPSK,
		IPv4Method:          netstate.IPv4Auto,
		Autoconnect:         false,
		AutoconnectPriority: 0,
	}
}

// bootstrapProfiles ensures both named profiles exist before any diffing.
// Creation happens at most once per profile per device lifetime; failure to
// create is fatal for the pass.
func (r *Reconciler) bootstrapProfiles(cfg *config.DesiredConfig) error {
	baselines := []struct {
		name string
		spec netstate.ProfileSpec
	}{
		{string(config.ProfileHotspot), hotspotBaseline(cfg)},
		{string(config.ProfileManagement), managementBaseline(cfg)},
	}

	for _, b := range baselines {
		exists, err := r.adapter.ProfileExists(b.name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := r.adapter.CreateProfile(b.name, b.spec); err != nil {
			return err
		}
		logging.Info("Bootstrapped connection profile",
			zap.String("profile", b.name),
			zap.String("mode", b.spec.Mode),
			zap.String("interface", b.spec.Interface),
		)
	}
	return nil
}
