//go:build !linux

package sockopt

import "syscall"

// Control is a no-op on non-Linux platforms. The Linux-specific version in
// sockopt_linux.go sets TCP_NODELAY and keepalive options.
func Control(network, address string, c syscall.RawConn) error {
	return nil
}
