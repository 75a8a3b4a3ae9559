// Package config loads and validates the YAML process configuration,
// adapted from Ealireza-SuperProxy/config.go: same read-validate-normalize
// shape, extended with the SOCKS5 auth mode spec.md §6 requires.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// AuthMode is the on-disk representation of spec.md §3's auth
// configuration: either "none" or "password".
type AuthMode string

const (
	AuthNone     AuthMode = "none"
	AuthPassword AuthMode = "password"
)

// Listener defines a single SOCKS5 listener: the port it binds, its auth
// mode and credential, and an optional fixed outbound IPv6 source address
// — the capability the teacher repo was built around, carried over as an
// optional per-listener setting (an empty OutboundIPv6 means "let the
// kernel pick").
type Listener struct {
	Port     int      `yaml:"port"`
	Auth     AuthMode `yaml:"auth"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`

	OutboundIPv6 string `yaml:"outbound_ipv6,omitempty"`
}

// Config is the top-level YAML configuration.
type Config struct {
	// Interface is the network interface outbound IPv6 addresses are
	// assigned to, if any listener sets OutboundIPv6. Optional when no
	// listener uses OutboundIPv6.
	Interface string     `yaml:"interface,omitempty"`
	Listeners []Listener `yaml:"listeners"`
}

// LoadConfig reads and validates the YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Listeners) == 0 {
		return nil, fmt.Errorf("config: at least one listener is required")
	}

	seenPorts := make(map[int]struct{}, len(cfg.Listeners))
	usesOutboundIPv6 := false

	for i, l := range cfg.Listeners {
		if l.Port < 1 || l.Port > 65535 {
			return nil, fmt.Errorf("config: listeners[%d]: port %d out of range (1-65535)", i, l.Port)
		}
		if _, ok := seenPorts[l.Port]; ok {
			return nil, fmt.Errorf("config: listeners[%d]: duplicate port %d", i, l.Port)
		}
		seenPorts[l.Port] = struct{}{}

		switch l.Auth {
		case AuthNone:
			// no credential fields expected
		case AuthPassword:
			if l.Username == "" {
				return nil, fmt.Errorf("config: listeners[%d]: auth \"password\" requires a non-empty username", i)
			}
		default:
			return nil, fmt.Errorf("config: listeners[%d]: auth must be %q or %q, got %q", i, AuthNone, AuthPassword, l.Auth)
		}

		if l.OutboundIPv6 != "" {
			ip := net.ParseIP(l.OutboundIPv6)
			if ip == nil {
				return nil, fmt.Errorf("config: listeners[%d]: invalid outbound_ipv6 %q", i, l.OutboundIPv6)
			}
			if ip.To4() != nil {
				return nil, fmt.Errorf("config: listeners[%d]: outbound_ipv6 %q is IPv4, only IPv6 is supported", i, l.OutboundIPv6)
			}
			cfg.Listeners[i].OutboundIPv6 = ip.String()
			usesOutboundIPv6 = true
		}
	}

	if usesOutboundIPv6 && cfg.Interface == "" {
		return nil, fmt.Errorf("config: 'interface' is required when any listener sets outbound_ipv6")
	}

	return &cfg, nil
}
