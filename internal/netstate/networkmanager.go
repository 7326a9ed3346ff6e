package netstate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/piratelabs/seanet/internal/wireless"
)

const (
	nmService      = "org.freedesktop.NetworkManager"
	nmPath         = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmSettingsPath = dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings")

	nmIface         = "org.freedesktop.NetworkManager"
	nmSettingsIface = "org.freedesktop.NetworkManager.Settings"
	nmConnIface     = "org.freedesktop.NetworkManager.Settings.Connection"
	nmDeviceIface   = "org.freedesktop.NetworkManager.Device"
	nmActiveIface   = "org.freedesktop.NetworkManager.Connection.Active"
	nmIP4Iface      = "org.freedesktop.NetworkManager.IP4Config"
)

// NMActiveConnectionState values (subset), per NetworkManager's D-Bus API
const (
	nmActiveStateActivating   = 1
	nmActiveStateActivated    = 2
	nmActiveStateDeactivating = 3
	nmActiveStateDeactivated  = 4
)

// DefaultPollInterval is how often activation progress is checked during a
// bounded wait
const DefaultPollInterval = 500 * time.Millisecond

// nmSettings is NetworkManager's connection settings wire type: a map of
// setting group name to property name to value.
type nmSettings = map[string]map[string]dbus.Variant

// NetworkManager implements Adapter against NetworkManager's D-Bus API.
//
// All profile lookups are by connection id, which this subsystem controls
// (profiles are created by it with fixed names). Reads are never cached.
type NetworkManager struct {
	conn *dbus.Conn
	reg  *wireless.RegDomain

	// PollInterval controls how often activation state is sampled during
	// Activate's bounded wait
	PollInterval time.Duration
}

// NewNetworkManager connects to the system bus and returns an adapter bound
// to NetworkManager.
func NewNetworkManager() (*NetworkManager, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, NewQueryError("connect", "failed to connect to system bus", err)
	}
	return &NetworkManager{
		conn:         conn,
		reg:          wireless.NewRegDomain(),
		PollInterval: DefaultPollInterval,
	}, nil
}

// Close releases the D-Bus connection.
func (nm *NetworkManager) Close() error {
	return nm.conn.Close()
}

// RegulatoryDomain returns the kernel's current wireless regulatory domain.
func (nm *NetworkManager) RegulatoryDomain() (string, error) {
	code, err := nm.reg.Get()
	if err != nil {
		return "", NewRegulatoryDomainError("get", err)
	}
	return code, nil
}

// SetRegulatoryDomain sets the kernel's wireless regulatory domain.
func (nm *NetworkManager) SetRegulatoryDomain(code string) error {
	if err := nm.reg.Set(code); err != nil {
		return NewRegulatoryDomainError("set", err)
	}
	return nil
}

// ProfileExists reports whether a connection profile with the given id exists.
func (nm *NetworkManager) ProfileExists(name string) (bool, error) {
	path, _, err := nm.findConnection(name)
	if err != nil {
		return false, err
	}
	return path != "", nil
}

// CreateProfile adds a new WPA2-PSK wireless connection profile.
func (nm *NetworkManager) CreateProfile(name string, spec ProfileSpec) error {
	settings := nmSettings{
		"connection": {
			"id":                   dbus.MakeVariant(name),
			"type":                 dbus.MakeVariant("802-11-wireless"),
			"interface-name":       dbus.MakeVariant(spec.Interface),
			"autoconnect":          dbus.MakeVariant(spec.Autoconnect),
			"autoconnect-priority": dbus.MakeVariant(int32(spec.AutoconnectPriority)),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(spec.SSID)),
			"mode": dbus.MakeVariant(spec.Mode),
		},
		"802-11-wireless-security": {
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(spec.PSK),
			"proto":    dbus.MakeVariant([]string{"rsn"}),
			"pairwise": dbus.MakeVariant([]string{"ccmp"}),
			"group":    dbus.MakeVariant([]string{"ccmp"}),
		},
		"ipv4": {
			"method": dbus.MakeVariant(spec.IPv4Method),
		},
		"ipv6": {
			"method": dbus.MakeVariant("ignore"),
		},
	}

	obj := nm.conn.Object(nmService, nmSettingsPath)
	var path dbus.ObjectPath
	if err := obj.Call(nmSettingsIface+".AddConnection", 0, settings).Store(&path); err != nil {
		return NewProfileCreateError(name, err)
	}
	return nil
}

// GetAttribute returns a single profile attribute as a string. Missing
// attributes read as "".
func (nm *NetworkManager) GetAttribute(name string, attr string) (string, error) {
	group, key, err := splitAttr(attr)
	if err != nil {
		return "", err
	}

	_, settings, err := nm.requireConnection(name)
	if err != nil {
		return "", err
	}

	groupMap, ok := settings[group]
	if !ok {
		return "", nil
	}
	variant, ok := groupMap[key]
	if !ok {
		return "", nil
	}
	return variantToString(variant)
}

// GetSecret returns the real stored value of a secret attribute by asking
// NetworkManager for the unmasked secrets of the attribute's setting group.
func (nm *NetworkManager) GetSecret(name string, attr string) (string, error) {
	group, key, err := splitAttr(attr)
	if err != nil {
		return "", err
	}

	path, _, err := nm.requireConnection(name)
	if err != nil {
		return "", err
	}

	obj := nm.conn.Object(nmService, path)
	var secrets nmSettings
	if err := obj.Call(nmConnIface+".GetSecrets", 0, group).Store(&secrets); err != nil {
		// A profile whose secrets were never stored reports no secrets for
		// the group rather than an empty map
		if isNoSecretsError(err) {
			return "", nil
		}
		return "", NewQueryError("get-secret", fmt.Sprintf("failed to read secrets for %q", attr), err)
	}

	groupMap, ok := secrets[group]
	if !ok {
		return "", nil
	}
	variant, ok := groupMap[key]
	if !ok {
		return "", nil
	}
	return variantToString(variant)
}

// SetAttribute patches a single profile attribute and persists the profile.
func (nm *NetworkManager) SetAttribute(name string, attr string, value string) error {
	group, key, err := splitAttr(attr)
	if err != nil {
		return err
	}

	path, settings, err := nm.requireConnection(name)
	if err != nil {
		return err
	}

	// GetSettings strips secrets. Merge them back before Update so a patch of
	// one attribute does not clear the stored PSK.
	obj := nm.conn.Object(nmService, path)
	var secrets nmSettings
	if err := obj.Call(nmConnIface+".GetSecrets", 0, "802-11-wireless-security").Store(&secrets); err == nil {
		for g, props := range secrets {
			if settings[g] == nil {
				settings[g] = map[string]dbus.Variant{}
			}
			for k, v := range props {
				settings[g][k] = v
			}
		}
	}

	typed, err := stringToValue(key, value)
	if err != nil {
		return err
	}
	if settings[group] == nil {
		settings[group] = map[string]dbus.Variant{}
	}
	settings[group][key] = dbus.MakeVariant(typed)

	if err := obj.Call(nmConnIface+".Update", 0, settings).Store(); err != nil {
		return NewQueryError("set-attribute", fmt.Sprintf("failed to update %q", attr), err)
	}
	return nil
}

// CurrentProfile returns the id of the connection currently active on the
// interface, or "" when the interface has no active connection.
func (nm *NetworkManager) CurrentProfile(iface string) (string, error) {
	devPath, err := nm.deviceByIface(iface)
	if err != nil {
		return "", err
	}
	if devPath == "" {
		return "", nil
	}

	dev := nm.conn.Object(nmService, devPath)
	acVariant, err := dev.GetProperty(nmDeviceIface + ".ActiveConnection")
	if err != nil {
		return "", NewQueryError("current-profile", "failed to read device active connection", err)
	}
	acPath, ok := acVariant.Value().(dbus.ObjectPath)
	if !ok || acPath == "/" || acPath == "" {
		return "", nil
	}

	ac := nm.conn.Object(nmService, acPath)
	idVariant, err := ac.GetProperty(nmActiveIface + ".Id")
	if err != nil {
		// The active connection can vanish between the two reads
		return "", nil
	}
	id, _ := idVariant.Value().(string)
	return id, nil
}

// Activate brings the named profile up and waits for NetworkManager to report
// it activated, bounded by timeout.
func (nm *NetworkManager) Activate(name string, timeout time.Duration) error {
	connPath, settings, err := nm.requireConnection(name)
	if err != nil {
		return err
	}

	// Prefer the profile's bound interface; "/" lets NetworkManager choose
	devPath := dbus.ObjectPath("/")
	if connGroup, ok := settings["connection"]; ok {
		if v, ok := connGroup["interface-name"]; ok {
			if iface, ok := v.Value().(string); ok && iface != "" {
				if p, err := nm.deviceByIface(iface); err == nil && p != "" {
					devPath = p
				}
			}
		}
	}

	root := nm.conn.Object(nmService, nmPath)
	var acPath dbus.ObjectPath
	err = root.Call(nmIface+".ActivateConnection", 0,
		connPath, devPath, dbus.ObjectPath("/")).Store(&acPath)
	if err != nil {
		return NewActivationError(name, err)
	}

	interval := nm.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)

	for {
		ac := nm.conn.Object(nmService, acPath)
		stateVariant, err := ac.GetProperty(nmActiveIface + ".State")
		if err != nil {
			// NetworkManager removes the active connection object when
			// activation fails outright
			return NewActivationError(name, err)
		}

		state, _ := stateVariant.Value().(uint32)
		switch state {
		case nmActiveStateActivated:
			return nil
		case nmActiveStateDeactivating, nmActiveStateDeactivated:
			return NewActivationError(name, fmt.Errorf("backend reported state %d", state))
		}

		if time.Now().After(deadline) {
			return NewActivationTimeout(name, int(timeout/time.Second))
		}
		time.Sleep(interval)
	}
}

// Deactivate brings the named profile down if it is active. Deactivating a
// profile that is not up is a no-op.
func (nm *NetworkManager) Deactivate(name string) error {
	root := nm.conn.Object(nmService, nmPath)
	activeVariant, err := root.GetProperty(nmIface + ".ActiveConnections")
	if err != nil {
		return NewQueryError("deactivate", "failed to list active connections", err)
	}
	activePaths, _ := activeVariant.Value().([]dbus.ObjectPath)

	for _, acPath := range activePaths {
		ac := nm.conn.Object(nmService, acPath)
		idVariant, err := ac.GetProperty(nmActiveIface + ".Id")
		if err != nil {
			continue
		}
		if id, _ := idVariant.Value().(string); id != name {
			continue
		}
		if err := root.Call(nmIface+".DeactivateConnection", 0, acPath).Store(); err != nil {
			return NewQueryError("deactivate", fmt.Sprintf("failed to deactivate %q", name), err)
		}
		return nil
	}
	return nil
}

// ConnectivityLevel returns NetworkManager's system connectivity state.
func (nm *NetworkManager) ConnectivityLevel() (Connectivity, error) {
	root := nm.conn.Object(nmService, nmPath)
	variant, err := root.GetProperty(nmIface + ".Connectivity")
	if err != nil {
		return ConnectivityUnknown, NewQueryError("connectivity", "failed to read connectivity state", err)
	}
	level, _ := variant.Value().(uint32)
	// NMConnectivityState shares this package's numbering
	if level > uint32(ConnectivityFull) {
		return ConnectivityUnknown, nil
	}
	return Connectivity(level), nil
}

// IPv4Address returns the interface's first assigned IPv4 address, or ""
// when it has none.
func (nm *NetworkManager) IPv4Address(iface string) (string, error) {
	devPath, err := nm.deviceByIface(iface)
	if err != nil {
		return "", err
	}
	if devPath == "" {
		return "", nil
	}

	dev := nm.conn.Object(nmService, devPath)
	cfgVariant, err := dev.GetProperty(nmDeviceIface + ".Ip4Config")
	if err != nil {
		return "", NewQueryError("ipv4-address", "failed to read device IP4 config path", err)
	}
	cfgPath, ok := cfgVariant.Value().(dbus.ObjectPath)
	if !ok || cfgPath == "/" || cfgPath == "" {
		return "", nil
	}

	cfg := nm.conn.Object(nmService, cfgPath)
	addrVariant, err := cfg.GetProperty(nmIP4Iface + ".AddressData")
	if err != nil {
		return "", NewQueryError("ipv4-address", "failed to read address data", err)
	}
	addrs, _ := addrVariant.Value().([]map[string]dbus.Variant)
	for _, addr := range addrs {
		if v, ok := addr["address"]; ok {
			if s, ok := v.Value().(string); ok && s != "" {
				return s, nil
			}
		}
	}
	return "", nil
}

// findConnection locates a connection profile by id. Returns "" path when no
// profile with that id exists.
func (nm *NetworkManager) findConnection(name string) (dbus.ObjectPath, nmSettings, error) {
	obj := nm.conn.Object(nmService, nmSettingsPath)
	var paths []dbus.ObjectPath
	if err := obj.Call(nmSettingsIface+".ListConnections", 0).Store(&paths); err != nil {
		return "", nil, NewQueryError("list-connections", "failed to list connection profiles", err)
	}

	for _, path := range paths {
		connObj := nm.conn.Object(nmService, path)
		var settings nmSettings
		if err := connObj.Call(nmConnIface+".GetSettings", 0).Store(&settings); err != nil {
			// A profile can be removed between List and GetSettings
			continue
		}
		connGroup, ok := settings["connection"]
		if !ok {
			continue
		}
		idVariant, ok := connGroup["id"]
		if !ok {
			continue
		}
		if id, _ := idVariant.Value().(string); id == name {
			return path, settings, nil
		}
	}
	return "", nil, nil
}

// requireConnection is findConnection but missing profiles are an error.
func (nm *NetworkManager) requireConnection(name string) (dbus.ObjectPath, nmSettings, error) {
	path, settings, err := nm.findConnection(name)
	if err != nil {
		return "", nil, err
	}
	if path == "" {
		return "", nil, NewQueryError("find-connection", fmt.Sprintf("profile %q does not exist", name), nil)
	}
	return path, settings, nil
}

// deviceByIface resolves an interface name to its device object path.
// Returns "" when NetworkManager does not manage the interface.
func (nm *NetworkManager) deviceByIface(iface string) (dbus.ObjectPath, error) {
	root := nm.conn.Object(nmService, nmPath)
	var devPath dbus.ObjectPath
	if err := root.Call(nmIface+".GetDeviceByIpIface", 0, iface).Store(&devPath); err != nil {
		var dbusErr dbus.Error
		if asDBusError(err, &dbusErr) && strings.Contains(dbusErr.Name, "UnknownDevice") {
			return "", nil
		}
		return "", NewQueryError("get-device", fmt.Sprintf("failed to look up interface %q", iface), err)
	}
	return devPath, nil
}

// splitAttr splits a dotted attribute key into setting group and property.
func splitAttr(attr string) (string, string, error) {
	group, key, found := strings.Cut(attr, ".")
	if !found || group == "" || key == "" {
		return "", "", NewValidationError("split-attribute", fmt.Sprintf("malformed attribute key %q", attr))
	}
	return group, key, nil
}

// variantToString renders an attribute value the way the diffing engine
// compares it: booleans as yes/no, integers as decimal, SSIDs as text.
func variantToString(v dbus.Variant) (string, error) {
	switch val := v.Value().(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case bool:
		if val {
			return "yes", nil
		}
		return "no", nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		return "", NewValidationError("read-attribute", fmt.Sprintf("unsupported attribute type %T", val))
	}
}

// stringToValue converts a string attribute value to the wire type
// NetworkManager expects for that property.
func stringToValue(key string, value string) (interface{}, error) {
	switch key {
	case "ssid":
		return []byte(value), nil
	case "autoconnect":
		switch value {
		case "yes", "true":
			return true, nil
		case "no", "false":
			return false, nil
		default:
			return nil, NewValidationError("write-attribute", fmt.Sprintf("invalid boolean value %q", value))
		}
	case "autoconnect-priority":
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil {
			return nil, NewValidationError("write-attribute", fmt.Sprintf("invalid integer value %q", value))
		}
		return int32(n), nil
	default:
		return value, nil
	}
}

// isNoSecretsError reports whether a GetSecrets failure just means the
// profile has no stored secrets for the requested group.
func isNoSecretsError(err error) bool {
	var dbusErr dbus.Error
	if !asDBusError(err, &dbusErr) {
		return false
	}
	return strings.Contains(dbusErr.Name, "NoSecrets") ||
		strings.Contains(dbusErr.Name, "SettingNotFound")
}

func asDBusError(err error, target *dbus.Error) bool {
	if e, ok := err.(dbus.Error); ok {
		*target = e
		return true
	}
	return false
}
