package wireless

import (
	"errors"
	"strings"
	"testing"

	"github.com/mdlayher/genetlink"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "us", "US"},
		{"uppercase", "GB", "GB"},
		{"mixed case", "De", "DE"},
		{"trailing nul from kernel", "jp\x00", "JP"},
		{"surrounding whitespace", " fr ", "FR"},
		{"world domain", "00", "00"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCode(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

// failingDial substitutes the netlink connection with one that cannot open,
// the failure mode on kernels without nl80211 or in containers
func failingDial() (*genetlink.Conn, error) {
	return nil, errors.New("address family not supported")
}

func TestGetDialFailure(t *testing.T) {
	r := &RegDomain{dial: failingDial}
	_, err := r.Get()
	if err == nil {
		t.Fatal("expected error when the netlink socket cannot open")
	}
	if !strings.Contains(err.Error(), "nl80211 socket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSetDialFailure(t *testing.T) {
	r := &RegDomain{dial: failingDial}
	err := r.Set("US")
	if err == nil {
		t.Fatal("expected error when the netlink socket cannot open")
	}
	if !strings.Contains(err.Error(), "nl80211 socket") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSetRejectsBadCode(t *testing.T) {
	dialed := false
	r := &RegDomain{dial: func() (*genetlink.Conn, error) {
		dialed = true
		return nil, errors.New("unreachable")
	}}

	for _, code := range []string{"", "U", "USA"} {
		if err := r.Set(code); err == nil {
			t.Errorf("expected error for code %q", code)
		}
	}
	if dialed {
		t.Error("invalid codes must be rejected before opening a socket")
	}
}
