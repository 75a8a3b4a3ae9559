// Package resolver implements the socks5.Resolver capability: IPv4-only
// domain name resolution for the Request phase's ATYP_DOMAIN case, backed
// by direct A-record queries instead of the host's cgo-backed system
// resolver, mirroring the reference's use of a dedicated DNS client
// (trust_dns_resolver) rather than libc getaddrinfo.
package resolver

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/miekg/dns"
)

// Resolver queries A records against a fixed set of nameservers (or, if
// none are configured, whatever /etc/resolv.conf names) and returns them
// in answer order. Only the first address is ever used by the core
// (spec.md §4.4/§9), but the full ordered list is returned so callers can
// inspect it (e.g. in tests).
type Resolver struct {
	// Servers is a list of "host:port" nameserver addresses. If empty,
	// the system's /etc/resolv.conf is read once, lazily, and cached —
	// the process-wide singleton spec.md §5 calls for.
	Servers []string

	client clientState
}

type clientState struct {
	once    sync.Once
	servers []string
	err     error
}

// ResolveIPv4 implements socks5.Resolver.
func (r *Resolver) ResolveIPv4(ctx context.Context, name string) ([]net.IP, error) {
	servers, err := r.resolveServers()
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("resolver: no nameservers configured")
	}

	fqdn := dns.Fqdn(name)
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, dns.TypeA)
	msg.RecursionDesired = true

	c := new(dns.Client)

	var lastErr error
	for _, server := range servers {
		in, _, err := c.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if in.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("resolver: %s answered rcode %s", server, dns.RcodeToString[in.Rcode])
			continue
		}

		var addrs []net.IP
		for _, rr := range in.Answer {
			if a, ok := rr.(*dns.A); ok {
				addrs = append(addrs, a.A)
			}
		}
		return addrs, nil
	}
	return nil, lastErr
}

func (r *Resolver) resolveServers() ([]string, error) {
	if len(r.Servers) > 0 {
		return r.Servers, nil
	}
	r.client.once.Do(func() {
		cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			r.client.err = fmt.Errorf("resolver: read /etc/resolv.conf: %w", err)
			return
		}
		for _, s := range cfg.Servers {
			r.client.servers = append(r.client.servers, net.JoinHostPort(s, cfg.Port))
		}
	})
	return r.client.servers, r.client.err
}
