package distsync

import (
	"crypto/tls"
	"fmt"
	"net"
	"strings"
)

// dialPeerTLS dials a fleet peer directly over TLS (bypassing QUIC/HTTP3),
// enforcing TLS 1.3 and deriving SNI from addr when cfg doesn't set one.
// Unused by the corpus/dictionary sync path today, which speaks HTTP/3
// exclusively, but kept as the bare-TLS half of the same peer-dialing
// surface generateFleetCert's certificates are meant to serve, and is
// exercised directly by this package's tests.
func dialPeerTLS(network, addr string, cfg *tls.Config) (net.Conn, error) {
	cfg = enforceTLS13(cfg)

	if cfg.ServerName == "" {
		if host := sniFromAddr(addr); host != "" {
			cfg = cfg.Clone()
			cfg.ServerName = host
		}
	}

	conn, err := tls.Dial(network, addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("distsync: dialing peer %s: %w", addr, err)
	}

	return conn, nil
}

// wrapPeerListener wraps ln so every accepted connection is upgraded to
// TLS 1.3 using cfg, for the bare-TLS counterpart of dialPeerTLS.
func wrapPeerListener(ln net.Listener, cfg *tls.Config) net.Listener {
	return tls.NewListener(ln, enforceTLS13(cfg))
}

// enforceTLS13 returns cfg (or a fresh default) with MinVersion raised to
// TLS 1.3 if it wasn't already, matching the floor the HTTP/3 transport in
// http3.go enforces for the QUIC path.
func enforceTLS13(cfg *tls.Config) *tls.Config {
	if cfg == nil {
		return &tls.Config{MinVersion: tls.VersionTLS13}
	}

	if cfg.MinVersion >= tls.VersionTLS13 {
		return cfg
	}

	c := cfg.Clone()
	c.MinVersion = tls.VersionTLS13

	return c
}

// sniFromAddr strips a trailing ":port" and any IPv6 brackets from addr to
// derive a ServerName for SNI.
func sniFromAddr(addr string) string {
	host := addr
	if idx := strings.LastIndexByte(addr, ':'); idx > 0 {
		host = addr[:idx]
	}

	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")

	return host
}
