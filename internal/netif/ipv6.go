// Package netif ensures the outbound IPv6 source addresses named by
// listener configuration are actually assigned to the network interface
// before any dialer tries to bind to them, adapted from
// Ealireza-SuperProxy/netif.go and ipv6.go.
package netif

import (
	"fmt"
	"net"
)

// ParseIPv6 validates that s is a valid IPv6 address (not CIDR, not v4).
func ParseIPv6(s string) (net.IP, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %q", s)
	}
	if ip.To4() != nil {
		return nil, fmt.Errorf("expected IPv6, got IPv4: %q", s)
	}
	return ip, nil
}
