package netstate

import "time"

// Connectivity classifies the system-wide connectivity state as reported by
// the network backend. Values mirror NetworkManager's NMConnectivityState.
type Connectivity int

const (
	// ConnectivityUnknown means the backend could not determine connectivity
	ConnectivityUnknown Connectivity = iota
	// ConnectivityNone means the host has no network path at all
	ConnectivityNone
	// ConnectivityPortal means traffic is intercepted by a captive portal
	ConnectivityPortal
	// ConnectivityLimited means the host has link-local or restricted access
	ConnectivityLimited
	// ConnectivityFull means the host has unrestricted connectivity
	ConnectivityFull
)

// String returns the lowercase name used in logs and the run journal
func (c Connectivity) String() string {
	switch c {
	case ConnectivityNone:
		return "none"
	case ConnectivityPortal:
		return "portal"
	case ConnectivityLimited:
		return "limited"
	case ConnectivityFull:
		return "full"
	default:
		return "unknown"
	}
}

// Wireless operating modes for a connection profile
const (
	// ModeAccessPoint makes the device broadcast its own network
	ModeAccessPoint = "ap"
	// ModeClient makes the device join an existing network
	ModeClient = "infrastructure"
)

// IPv4 methods for a connection profile
const (
	// IPv4Shared runs DHCP and NAT for clients of an access point
	IPv4Shared = "shared"
	// IPv4Auto obtains an address from the joined network's DHCP server
	IPv4Auto = "auto"
)

// Attribute keys accepted by GetAttribute, GetSecret and SetAttribute.
// Keys use the backend's dotted group.property form so that the diffing
// engine and the backend agree on naming without a translation table.
const (
	AttrSSID                = "802-11-wireless.ssid"
	AttrMode                = "802-11-wireless.mode"
	AttrPSK                 = "802-11-wireless-security.psk"
	AttrAutoconnect         = "connection.autoconnect"
	AttrAutoconnectPriority = "connection.autoconnect-priority"
	AttrIPv4Method          = "ipv4.method"
	AttrInterfaceName       = "connection.interface-name"
)

// ProfileSpec describes the full baseline of a connection profile at creation
// time. After creation, individual attributes are patched via SetAttribute.
type ProfileSpec struct {
	// Interface is the physical device the profile binds to (e.g. "wlan0")
	Interface string

	// Mode is ModeAccessPoint or ModeClient
	Mode string

	// SSID is the network name broadcast (AP) or joined (client)
	SSID string

	// PSK is the WPA2 pre-shared key
	PSK string

	// IPv4Method is IPv4Shared or IPv4Auto
	IPv4Method string

	// Autoconnect enables unattended activation at boot
	Autoconnect bool

	// AutoconnectPriority orders autoconnect candidates (higher wins)
	AutoconnectPriority int
}

// Adapter is the interface to the live network configuration backend.
//
// All reads return a fresh snapshot: the backend is authoritative and external
// to this process, so callers must not cache results across mutations. Create,
// query and patch calls are expected to complete quickly; only Activate takes
// an explicit bound.
type Adapter interface {
	// RegulatoryDomain returns the current wireless regulatory domain as a
	// 2-letter country code, or "00" when unset (world domain).
	RegulatoryDomain() (string, error)

	// SetRegulatoryDomain sets the wireless regulatory domain. Takes effect
	// immediately on allowed channels and transmit power.
	SetRegulatoryDomain(code string) error

	// ProfileExists reports whether a profile with the given name exists.
	ProfileExists(name string) (bool, error)

	// CreateProfile creates a new profile with the given baseline. Failing to
	// create a profile is fatal for a reconciliation pass.
	CreateProfile(name string, spec ProfileSpec) error

	// GetAttribute returns a profile attribute as a string. Booleans read as
	// "yes"/"no", integers as decimal. Secret attributes read via GetAttribute
	// return a masked placeholder or empty; use GetSecret for diffing.
	GetAttribute(name string, attr string) (string, error)

	// GetSecret returns the real stored value of a secret attribute. Returns
	// "" when the secret has never been set.
	GetSecret(name string, attr string) (string, error)

	// SetAttribute patches a single profile attribute. Takes effect on the
	// next activation of that profile, not retroactively.
	SetAttribute(name string, attr string, value string) error

	// CurrentProfile returns the name of the profile currently bound to the
	// interface, or "" when none is.
	CurrentProfile(iface string) (string, error)

	// Activate brings the named profile up, waiting at most timeout for the
	// backend to report it active. Returns an AdapterError of kind
	// KindActivationTimeout or KindActivationFailed on failure.
	Activate(name string, timeout time.Duration) error

	// Deactivate brings the named profile down. Best-effort: deactivating a
	// profile that is not up is not an error.
	Deactivate(name string) error

	// ConnectivityLevel returns the backend's connectivity classification.
	ConnectivityLevel() (Connectivity, error)

	// IPv4Address returns the interface's assigned IPv4 address, or "" when
	// the interface has none.
	IPv4Address(iface string) (string, error)
}
