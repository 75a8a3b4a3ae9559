package netif

import (
	"fmt"
	"net"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// EnsureIPv6Addresses checks each address against the network interface.
// If an address is not assigned, it adds it with a /128 prefix using
// "ip addr add". Idempotent — already-assigned addresses are silently
// skipped. Mirrors Ealireza-SuperProxy/netif.go, generalized from
// []ProxyEntry to a plain address list and a structured logger.
func EnsureIPv6Addresses(log *zap.Logger, iface string, addresses []string) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("interface %q: %w", iface, err)
	}

	addrs, err := ifi.Addrs()
	if err != nil {
		return fmt.Errorf("list addresses on %q: %w", iface, err)
	}

	existing := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		ipStr := a.String()
		if idx := strings.IndexByte(ipStr, '/'); idx != -1 {
			ipStr = ipStr[:idx]
		}
		if ip := net.ParseIP(ipStr); ip != nil {
			existing[ip.String()] = struct{}{}
		}
	}

	for _, raw := range addresses {
		ip, err := ParseIPv6(raw)
		if err != nil {
			return fmt.Errorf("invalid IPv6 %q: %w", raw, err)
		}

		normalized := ip.String()
		if _, ok := existing[normalized]; ok {
			log.Debug("address already assigned, skipping", zap.String("address", normalized), zap.String("interface", iface))
			continue
		}

		addr := normalized + "/128"
		cmd := exec.Command("ip", "addr", "add", addr, "dev", iface)
		output, err := cmd.CombinedOutput()
		if err != nil {
			if strings.Contains(string(output), "RTNETLINK answers: File exists") {
				log.Debug("address already exists (concurrent add), skipping", zap.String("address", normalized), zap.String("interface", iface))
				continue
			}
			return fmt.Errorf("ip addr add %s dev %s: %s: %w", addr, iface, strings.TrimSpace(string(output)), err)
		}

		log.Info("assigned address", zap.String("address", addr), zap.String("interface", iface))
	}

	return nil
}
