package reconcile

import "github.com/piratelabs/seanet/internal/netstate"

// Prober classifies whether the current active connection is usable. This is
// an auxiliary signal for operators and monitoring; activation success is
// judged by the adapter's own up/down result, since connectivity
// classification is eventually-consistent on some systems.
type Prober struct {
	adapter netstate.Adapter
}

// NewProber returns a Prober reading from the given adapter.
func NewProber(adapter netstate.Adapter) *Prober {
	return &Prober{adapter: adapter}
}

// Usable reports whether the interface has some usable network path.
//
// Full, limited and portal connectivity all count as usable: restricted or
// captive connectivity is still management-reachable. An unknown
// classification falls back to checking for an assigned IPv4 address. None
// is never usable.
func (p *Prober) Usable(iface string) (bool, netstate.Connectivity, error) {
	level, err := p.adapter.ConnectivityLevel()
	if err != nil {
		return false, netstate.ConnectivityUnknown, err
	}

	switch level {
	case netstate.ConnectivityFull, netstate.ConnectivityLimited, netstate.ConnectivityPortal:
		return true, level, nil
	case netstate.ConnectivityNone:
		return false, level, nil
	default:
		addr, err := p.adapter.IPv4Address(iface)
		if err != nil {
			return false, level, err
		}
		return addr != "", level, nil
	}
}
