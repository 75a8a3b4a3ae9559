// Command socks5gate runs one or more SOCKS5 proxy listeners as described
// by a YAML config file, adapted from Ealireza-SuperProxy/main.go: same
// flag/config-test/signal-handling shape, wired to internal/socks5.Server
// instead of the teacher's single-file handleConnection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"socks5gate/internal/config"
	"socks5gate/internal/netif"
	"socks5gate/internal/resolver"
	"socks5gate/internal/socks5"
	"socks5gate/internal/upstream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	testConfig := flag.Bool("t", false, "test configuration and exit")
	debug := flag.Bool("debug", false, "enable debug-level structured logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		if *testConfig {
			fmt.Fprintf(os.Stderr, "configuration test FAILED: %v\n", err)
			os.Exit(1)
		}
		log.Fatalf("[main] %v", err)
	}

	if *testConfig {
		fmt.Printf("configuration file %s test OK\n", *configPath)
		fmt.Printf("  listeners: %d\n", len(cfg.Listeners))
		for _, l := range cfg.Listeners {
			fmt.Printf("    socks5://0.0.0.0:%-5d auth=%s\n", l.Port, l.Auth)
		}
		os.Exit(0)
	}

	logger, err := newLogger(*debug)
	if err != nil {
		log.Fatalf("[main] failed to build logger: %v", err)
	}
	defer logger.Sync()

	log.Printf("[main] loaded %d listener(s) from %s", len(cfg.Listeners), *configPath)
	log.Printf("[main] GOMAXPROCS: %d", runtime.GOMAXPROCS(0))

	if runtime.GOOS == "linux" {
		if err := assignOutboundAddresses(logger, cfg); err != nil {
			log.Fatalf("[main] failed to ensure IPv6 addresses: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dnsResolver := &resolver.Resolver{}

	listeners := make([]net.Listener, 0, len(cfg.Listeners))
	var wg sync.WaitGroup

	for _, l := range cfg.Listeners {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", l.Port))
		if err != nil {
			log.Fatalf("[main] listen :%d: %v", l.Port, err)
		}
		listeners = append(listeners, ln)

		srv := &socks5.Server{
			AuthMode:         authMode(l),
			Resolver:         dnsResolver,
			Dialer:           dialerFor(l),
			Logger:           logger,
			HandshakeTimeout: 10 * time.Second,
		}

		go serveListener(ctx, ln, srv, l.Port, &wg)
	}

	log.Println("[main] ─────────────────────────────────────")
	for _, l := range cfg.Listeners {
		log.Printf("[main]   socks5://0.0.0.0:%-5d auth=%s", l.Port, l.Auth)
	}
	log.Println("[main] ─────────────────────────────────────")
	log.Println("[main] all proxies running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Printf("[main] received signal %s, shutting down...", sig)
	cancel()
	for _, ln := range listeners {
		ln.Close()
	}
	log.Println("[main] waiting for in-flight sessions to drain...")
	wg.Wait()
	log.Println("[main] shutdown complete")
}

func serveListener(ctx context.Context, ln net.Listener, srv *socks5.Server, port int, wg *sync.WaitGroup) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[socks5:%d] accept error: %v", port, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ServeConn(ctx, conn); err != nil {
				log.Printf("[socks5:%d] session error: %v", port, err)
			}
		}()
	}
}

func authMode(l config.Listener) socks5.AuthMode {
	if l.Auth == config.AuthPassword {
		return socks5.RequireCredential(l.Username, l.Password)
	}
	return socks5.NoAuth()
}

func dialerFor(l config.Listener) upstream.Dialer {
	d := upstream.Dialer{Timeout: 15 * time.Second}
	if l.OutboundIPv6 != "" {
		if ip, err := netif.ParseIPv6(l.OutboundIPv6); err == nil {
			d.LocalAddr = &net.TCPAddr{IP: ip}
		}
	}
	return d
}

func assignOutboundAddresses(logger *zap.Logger, cfg *config.Config) error {
	var addrs []string
	for _, l := range cfg.Listeners {
		if l.OutboundIPv6 != "" {
			addrs = append(addrs, l.OutboundIPv6)
		}
	}
	if len(addrs) == 0 {
		return nil
	}
	return netif.EnsureIPv6Addresses(logger, cfg.Interface, addrs)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
