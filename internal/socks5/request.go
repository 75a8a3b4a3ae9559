package socks5

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"syscall"
)

// Resolver resolves a domain name to an ordered list of IPv4 addresses, per
// spec.md §6 (the reference delegates to the host's system resolver
// configuration; this capability is injected so the core never imports a
// concrete DNS client).
type Resolver interface {
	ResolveIPv4(ctx context.Context, name string) ([]net.IP, error)
}

// Dialer opens an upstream connection, per spec.md §6. The reference dials
// TCP; any byte-oriented full-duplex stream satisfies this.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// handleRequest implements spec.md §4.4. It reads the SOCKS5 request
// header and address, resolves and dials as needed, and on success writes
// the fixed-zero-BND reply and returns the upstream connection.
func handleRequest(ctx context.Context, rw io.ReadWriter, resolver Resolver, dialer Dialer) (net.Conn, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(rw, hdr[:]); err != nil {
		return nil, err
	}
	if hdr[0] != Ver {
		return nil, ErrBadVersion{Version: hdr[0]}
	}
	if hdr[1] != CmdConnect {
		return nil, ErrBadCommand{Command: hdr[1]}
	}
	if hdr[2] != RSV {
		return nil, ErrBadRSV{RSV: hdr[2]}
	}

	host, err := readDestination(ctx, rw, hdr[3], resolver)
	if err != nil {
		return nil, err
	}

	port, err := readPort(rw)
	if err != nil {
		return nil, err
	}

	target := net.JoinHostPort(host, strconv.Itoa(int(port)))
	upstream, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, ErrDialFailure{Err: err, Rep: dialFailureReply(err)}
	}

	if err := writeSuccessReply(rw); err != nil {
		upstream.Close()
		return nil, err
	}
	return upstream, nil
}

// readDestination decodes DST.ADDR for the given ATYP, resolving domain
// names to their first IPv4 answer (spec.md §4.4 step 4).
func readDestination(ctx context.Context, r io.Reader, atyp byte, resolver Resolver) (string, error) {
	switch atyp {
	case AtypIPv4:
		addr, err := readN(r, 4)
		if err != nil {
			return "", err
		}
		return net.IP(addr).String(), nil

	case AtypIPv6:
		addr, err := readN(r, 16)
		if err != nil {
			return "", err
		}
		return net.IP(addr).String(), nil

	case AtypDomain:
		raw, err := readLengthPrefixed(r)
		if err != nil {
			return "", err
		}
		name, err := domainName(raw)
		if err != nil {
			return "", err
		}
		addrs, err := resolver.ResolveIPv4(ctx, name)
		if err != nil {
			return "", ErrResolveFailure{Err: err}
		}
		if len(addrs) == 0 {
			return "", ErrResolveFailure{Err: errors.New("no IPv4 address")}
		}
		return addrs[0].String(), nil

	default:
		return "", ErrInvalidAddressType{Type: atyp}
	}
}

func readPort(r io.Reader) (uint16, error) {
	buf, err := readN(r, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func domainName(b []byte) (string, error) {
	if !isValidUTF8Domain(b) {
		return "", ErrInvalidDomainName{Err: errInvalidUTF8}
	}
	return string(b), nil
}

// writeSuccessReply writes VER REP_OK RSV ATYP_IPV4 UNSPECIFIED_BND, the
// fixed zero bind-address reply mandated by spec.md §4.4's bind-address
// policy: compliant CONNECT clients ignore BND.ADDR/BND.PORT, so the
// server never bothers reporting the real upstream-local address.
func writeSuccessReply(w io.Writer) error {
	var reply [10]byte
	reply[0] = Ver
	reply[1] = RepOK
	reply[2] = RSV
	reply[3] = AtypIPv4
	copy(reply[4:10], unspecifiedBND[:])
	_, err := w.Write(reply[:])
	return err
}

// dialFailureReply maps a dial error to a specific REP code, following the
// teacher's (Ealireza-SuperProxy/proxy.go) syscall-level classification of
// ECONNREFUSED, ENETUNREACH and EHOSTUNREACH; any other error maps to
// general failure.
func dialFailureReply(err error) byte {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return RepConnRefused
	case errors.Is(err, syscall.ENETUNREACH):
		return RepNetUnreachable
	case errors.Is(err, syscall.EHOSTUNREACH):
		return RepHostUnreachable
	default:
		return RepGeneralFailure
	}
}
