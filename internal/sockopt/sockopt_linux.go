//go:build linux

package sockopt

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Control configures TCP performance options on the raw socket fd. It is
// meant to be used as a net.Dialer.Control callback for the upstream dial
// in the Request phase, adapted from Ealireza-SuperProxy/sockopt_linux.go
// (originally written for that repo's outbound-IPv6 dialer; the socket
// options themselves are not specific to IPv6 and apply equally to the
// SOCKS5 upstream connection).
func Control(network, address string, c syscall.RawConn) error {
	var sysErr error
	err := c.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); e != nil {
			sysErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1); e != nil {
			sysErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 30); e != nil {
			sysErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 10); e != nil {
			sysErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3); e != nil {
			sysErr = e
			return
		}
	})
	if err != nil {
		return err
	}
	return sysErr
}
