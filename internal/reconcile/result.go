package reconcile

import (
	"time"

	"github.com/piratelabs/seanet/internal/config"
	"github.com/piratelabs/seanet/internal/netstate"
)

// Result describes the terminal state of one reconciliation pass.
type Result struct {
	// RunID uniquely identifies the pass in logs and the journal
	RunID string

	// Started is when the pass began
	Started time.Time

	// Desired is the profile the configuration asked for
	Desired config.Profile

	// Modified reports whether any mutating adapter call was issued. An
	// unmodified pass performs no activation.
	Modified bool

	// FellBack reports whether the hotspot was activated because the
	// management profile failed to come up
	FellBack bool

	// ActiveProfile is the profile bound to the interface at the end of the
	// pass, as reported by the adapter ("" when none)
	ActiveProfile string

	// Connectivity is the prober's classification at the end of the pass
	Connectivity netstate.Connectivity

	// Usable is the prober's verdict on the final connection
	Usable bool

	// Outcome is the journal category for this pass
	Outcome config.Outcome

	// Err is non-nil when the pass aborted or ended in total failure (the
	// hotspot itself unreachable). Fallback success is not an error.
	Err error
}

// Converged reports whether the pass ended with a working radio presence:
// either the desired profile or the fallback hotspot active. This is the
// process success criterion.
func (r *Result) Converged() bool {
	return r.Err == nil
}

// JournalRun converts the result into a journal entry.
func (r *Result) JournalRun() config.Run {
	run := config.Run{
		ID:            r.RunID,
		Time:          r.Started,
		Desired:       string(r.Desired),
		ActiveProfile: r.ActiveProfile,
		Connectivity:  r.Connectivity.String(),
		Modified:      r.Modified,
		Fallback:      r.FellBack,
		Outcome:       r.Outcome,
	}
	if r.Err != nil {
		run.Error = r.Err.Error()
	}
	return run
}
