package discovery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/grandcat/zeroconf"

	"github.com/piratelabs/seanet/internal/version"
)

const (
	// ServiceType is the mDNS service type seanet devices advertise
	ServiceType = "_seanet._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// ServicePort is advertised alongside the service. The device's
	// management surface listens here when one is installed; the record is
	// still useful for discovery when it is not.
	ServicePort = 8321
)

// Announcement holds the device state encoded into TXT records.
type Announcement struct {
	// Profile is the currently active profile ("hotspot" or "management")
	Profile string

	// Interface is the wireless interface the profile is bound to
	Interface string

	// Fallback reports whether the device is on the hotspot because
	// management failed
	Fallback bool
}

// Announcer registers the device on mDNS so operator tooling can find it
// after provisioning, which matters most in hotspot mode where the device's
// address is not predictable from the operator's side.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the service and returns an Announcer holding the
// registration open. Call Shutdown to withdraw the record.
func Announce(a Announcement) (*Announcer, error) {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "seanet-device"
	}

	server, err := zeroconf.Register(
		hostname,
		ServiceType,
		ServiceDomain,
		ServicePort,
		a.txtRecords(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	return &Announcer{server: server}, nil
}

// Shutdown withdraws the mDNS registration.
func (an *Announcer) Shutdown() {
	if an.server != nil {
		an.server.Shutdown()
		an.server = nil
	}
}

// txtRecords encodes the announcement as "key=value" TXT records in stable
// order.
func (a Announcement) txtRecords() []string {
	records := map[string]string{
		"profile":   a.Profile,
		"interface": a.Interface,
		"fallback":  fmt.Sprintf("%v", a.Fallback),
		"version":   version.Version,
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	txt := make([]string, 0, len(keys))
	for _, k := range keys {
		txt = append(txt, k+"="+records[k])
	}
	return txt
}

// ParseTXTRecords decodes "key=value" TXT records into a map. Records
// without a value map to "".
func ParseTXTRecords(txt []string) map[string]string {
	metadata := make(map[string]string, len(txt))
	for _, record := range txt {
		parts := strings.SplitN(record, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}
