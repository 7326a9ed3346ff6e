package reconcile

import (
	"fmt"
	"time"

	"github.com/piratelabs/seanet/internal/netstate"
)

// fakeProfile is the in-memory store behind fakeAdapter
type fakeProfile struct {
	attrs   map[string]string
	secrets map[string]string
}

// fakeAdapter implements netstate.Adapter for tests. It counts mutating
// calls and records activation order so idempotence and fallback properties
// can be asserted precisely.
type fakeAdapter struct {
	regDomain    string
	regReadErr   error
	regWriteErr  error
	regSetCalls  []string
	profiles     map[string]*fakeProfile
	createErr    error
	current      string
	currentErr   error
	activateErr  map[string]error
	activations  []string
	deactivation []string
	connectivity netstate.Connectivity
	connErr      error
	ipv4         string

	// mutations counts profile/regdomain writes (activations tracked apart)
	mutations int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		regDomain:    "US",
		profiles:     map[string]*fakeProfile{},
		activateErr:  map[string]error{},
		connectivity: netstate.ConnectivityFull,
	}
}

func (f *fakeAdapter) RegulatoryDomain() (string, error) {
	if f.regReadErr != nil {
		return "", f.regReadErr
	}
	return f.regDomain, nil
}

func (f *fakeAdapter) SetRegulatoryDomain(code string) error {
	if f.regWriteErr != nil {
		return f.regWriteErr
	}
	f.mutations++
	f.regSetCalls = append(f.regSetCalls, code)
	f.regDomain = code
	return nil
}

func (f *fakeAdapter) ProfileExists(name string) (bool, error) {
	_, ok := f.profiles[name]
	return ok, nil
}

func (f *fakeAdapter) CreateProfile(name string, spec netstate.ProfileSpec) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mutations++
	autoconnect := "no"
	if spec.Autoconnect {
		autoconnect = "yes"
	}
	f.profiles[name] = &fakeProfile{
		attrs: map[string]string{
			netstate.AttrSSID:                spec.SSID,
			netstate.AttrMode:                spec.Mode,
			netstate.AttrIPv4Method:          spec.IPv4Method,
			netstate.AttrAutoconnect:         autoconnect,
			netstate.AttrAutoconnectPriority: fmt.Sprintf("%d", spec.AutoconnectPriority),
			netstate.AttrInterfaceName:       spec.Interface,
		},
		secrets: map[string]string{
			netstate.AttrPSK: spec.PSK,
		},
	}
	return nil
}

func (f *fakeAdapter) GetAttribute(name string, attr string) (string, error) {
	profile, ok := f.profiles[name]
	if !ok {
		return "", netstate.NewQueryError("get-attribute", fmt.Sprintf("profile %q does not exist", name), nil)
	}
	return profile.attrs[attr], nil
}

func (f *fakeAdapter) GetSecret(name string, attr string) (string, error) {
	profile, ok := f.profiles[name]
	if !ok {
		return "", netstate.NewQueryError("get-secret", fmt.Sprintf("profile %q does not exist", name), nil)
	}
	return profile.secrets[attr], nil
}

func (f *fakeAdapter) SetAttribute(name string, attr string, value string) error {
	profile, ok := f.profiles[name]
	if !ok {
		return netstate.NewQueryError("set-attribute", fmt.Sprintf("profile %q does not exist", name), nil)
	}
	f.mutations++
	if attr == netstate.AttrPSK {
		profile.secrets[attr] = value
	} else {
		profile.attrs[attr] = value
	}
	return nil
}

func (f *fakeAdapter) CurrentProfile(iface string) (string, error) {
	if f.currentErr != nil {
		return "", f.currentErr
	}
	return f.current, nil
}

func (f *fakeAdapter) Activate(name string, timeout time.Duration) error {
	f.activations = append(f.activations, name)
	if err, ok := f.activateErr[name]; ok && err != nil {
		return err
	}
	f.current = name
	return nil
}

func (f *fakeAdapter) Deactivate(name string) error {
	f.deactivation = append(f.deactivation, name)
	if f.current == name {
		f.current = ""
	}
	return nil
}

func (f *fakeAdapter) ConnectivityLevel() (netstate.Connectivity, error) {
	if f.connErr != nil {
		return netstate.ConnectivityUnknown, f.connErr
	}
	return f.connectivity, nil
}

func (f *fakeAdapter) IPv4Address(iface string) (string, error) {
	return f.ipv4, nil
}
