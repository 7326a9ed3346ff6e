package reconcile

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/logging"
)

// Activation state machine:
//
//	Idle -> Deactivating -> ActivatingWant -> {Success | ActivatingFallback} -> Terminal
//
// The fallback exists so that a misconfigured or unreachable management
// network never strands the device: every pass ends with either the intended
// profile or the self-hosted hotspot active, except when the hotspot itself
// is unavailable.
type activationState int

const (
	stateIdle activationState = iota
	stateDeactivating
	stateActivatingWant
	stateActivatingFallback
	stateTerminal
)

// runActivation drives the state machine for a modified pass. Terminal
// states are not retried within a single invocation; the caller re-invokes
// on its own schedule if convergence is still wanted after failure.
func (r *Reconciler) runActivation(want config.Profile, res *Result) {
	other := want.Other()
	state := stateIdle

	for state != stateTerminal {
		switch state {
		case stateIdle:
			state = stateDeactivating

		case stateDeactivating:
			// Best-effort: a profile that was never up cannot meaningfully
			// fail to go down
			if err := r.adapter.Deactivate(string(want)); err != nil {
				logging.Debug("Deactivate ignored failure",
					zap.String("profile", string(want)), zap.Error(err))
			}
			if err := r.adapter.Deactivate(string(other)); err != nil {
				logging.Debug("Deactivate ignored failure",
					zap.String("profile", string(other)), zap.Error(err))
			}
			state = stateActivatingWant

		case stateActivatingWant:
			err := r.adapter.Activate(string(want), r.ActivationTimeout)
			if err == nil {
				logging.LogActivation(string(want), true, false, nil)
				res.Outcome = config.OutcomeConverged
				state = stateTerminal
				break
			}

			logging.LogActivation(string(want), false, false, err)
			if want == config.ProfileManagement {
				state = stateActivatingFallback
				break
			}

			// The hotspot is the fallback of last resort: its own failure is
			// unrecoverable by this subsystem and must surface as an error
			res.Outcome = config.OutcomeFailed
			res.Err = fmt.Errorf("hotspot activation failed with no fallback available: %w", err)
			state = stateTerminal

		case stateActivatingFallback:
			err := r.adapter.Activate(string(config.ProfileHotspot), r.ActivationTimeout)
			res.FellBack = true
			if err == nil {
				logging.LogActivation(string(config.ProfileHotspot), true, true, nil)
				res.Outcome = config.OutcomeFallback
			} else {
				logging.LogActivation(string(config.ProfileHotspot), false, true, err)
				res.Outcome = config.OutcomeFailed
				res.Err = fmt.Errorf("management activation failed and hotspot fallback failed: %w", err)
			}
			state = stateTerminal
		}
	}
}
