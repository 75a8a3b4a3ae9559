// Package upstream provides the reference implementation of the
// socks5.Dialer capability: a plain TCP dialer, optionally pinned to a
// local source address, with the teacher's socket tuning applied.
package upstream

import (
	"context"
	"net"
	"time"

	"socks5gate/internal/sockopt"
)

// Dialer dials upstream TCP connections for the Request phase.
type Dialer struct {
	// LocalAddr, if set, pins every outbound dial to this source address
	// — the capability Ealireza-SuperProxy's whole IPv6-pool feature
	// exists to provide (config.go/ipv6.go), carried over here as an
	// optional per-listener setting instead of the teacher's mandatory one.
	LocalAddr net.Addr

	// Timeout bounds the dial itself. Zero means no extra timeout beyond
	// ctx's own deadline, if any.
	Timeout time.Duration
}

// DialContext implements socks5.Dialer.
func (d Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := &net.Dialer{
		LocalAddr: d.LocalAddr,
		Timeout:   d.Timeout,
		KeepAlive: 30 * time.Second,
		Control:   sockopt.Control,
	}
	return dialer.DialContext(ctx, network, address)
}
