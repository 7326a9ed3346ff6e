package wireless

import (
	"fmt"
	"strings"

	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// WorldDomain is the kernel's placeholder code when no regulatory domain has
// been set. Setting it is never useful from configuration.
const WorldDomain = "00"

// RegDomain reads and writes the global wireless regulatory domain through
// the nl80211 generic netlink family.
type RegDomain struct {
	// dial allows tests to substitute the netlink connection
	dial func() (*genetlink.Conn, error)
}

// NewRegDomain returns a RegDomain bound to the kernel's nl80211 family.
func NewRegDomain() *RegDomain {
	return &RegDomain{
		dial: func() (*genetlink.Conn, error) {
			return genetlink.Dial(nil)
		},
	}
}

// Get returns the current global regulatory domain as a 2-letter country
// code, or WorldDomain when unset.
func (r *RegDomain) Get() (string, error) {
	conn, err := r.dial()
	if err != nil {
		return "", fmt.Errorf("failed to open nl80211 socket: %w", err)
	}
	defer conn.Close()

	family, err := conn.GetFamily("nl80211")
	if err != nil {
		return "", fmt.Errorf("nl80211 family not available: %w", err)
	}

	req := genetlink.Message{
		Header: genetlink.Header{
			Command: unix.NL80211_CMD_GET_REG,
			Version: 0,
		},
	}

	msgs, err := conn.Execute(req, family.ID, netlink.Request)
	if err != nil {
		return "", fmt.Errorf("failed to query regulatory domain: %w", err)
	}

	for _, msg := range msgs {
		ad, err := netlink.NewAttributeDecoder(msg.Data)
		if err != nil {
			return "", fmt.Errorf("failed to decode regulatory reply: %w", err)
		}
		for ad.Next() {
			if ad.Type() == unix.NL80211_ATTR_REG_ALPHA2 {
				return NormalizeCode(ad.String()), nil
			}
		}
		if err := ad.Err(); err != nil {
			return "", fmt.Errorf("failed to decode regulatory reply: %w", err)
		}
	}

	// No alpha2 attribute means the kernel is in the world domain
	return WorldDomain, nil
}

// Set requests the kernel to switch the global regulatory domain to the given
// 2-letter country code. The change applies immediately to allowed channels
// and transmit power on all wiphys.
func (r *RegDomain) Set(code string) error {
	code = NormalizeCode(code)
	if len(code) != 2 {
		return fmt.Errorf("invalid regulatory domain code %q (want 2 letters)", code)
	}

	conn, err := r.dial()
	if err != nil {
		return fmt.Errorf("failed to open nl80211 socket: %w", err)
	}
	defer conn.Close()

	family, err := conn.GetFamily("nl80211")
	if err != nil {
		return fmt.Errorf("nl80211 family not available: %w", err)
	}

	ae := netlink.NewAttributeEncoder()
	// The kernel expects a NUL-terminated alpha2
	ae.Bytes(unix.NL80211_ATTR_REG_ALPHA2, append([]byte(code), 0))
	data, err := ae.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode regulatory request: %w", err)
	}

	req := genetlink.Message{
		Header: genetlink.Header{
			Command: unix.NL80211_CMD_REQ_SET_REG,
			Version: 0,
		},
		Data: data,
	}

	if _, err := conn.Execute(req, family.ID, netlink.Request|netlink.Acknowledge); err != nil {
		return fmt.Errorf("failed to set regulatory domain to %q: %w", code, err)
	}

	return nil
}

// NormalizeCode upper-cases and trims a country code for comparison. The
// kernel reports lowercase for some driver-provided domains while
// configuration files typically carry uppercase.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimRight(code, "\x00")))
}
