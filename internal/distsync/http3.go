package distsync

import (
	"fmt"
	"net"
	"net/http"
	"time"

	quic "github.com/quic-go/quic-go"
	http3 "github.com/quic-go/quic-go/http3"

	"crypto/tls"
)

// SyncTransport is the QUIC/HTTP3 listener a sync server uses to serve its
// corpus and dictionary to fleet peers.
type SyncTransport struct {
	pc    net.PacketConn
	srv   *http3.Server
	close func() error
	errC  chan error
	addr  string
}

// PeerTransportOptions tunes the underlying QUIC connection beyond quic-go's
// defaults, for fleets that want faster peer-loss detection or 0-RTT
// reconnects across a flaky network.
type PeerTransportOptions struct {
	MaxIdleTimeout  time.Duration
	KeepAlivePeriod time.Duration
	Enable0RTT      bool
}

func quicConfigFor(opts PeerTransportOptions) *quic.Config {
	qc := &quic.Config{}

	if opts.MaxIdleTimeout > 0 {
		qc.MaxIdleTimeout = opts.MaxIdleTimeout
	}

	if opts.KeepAlivePeriod > 0 {
		qc.KeepAlivePeriod = opts.KeepAlivePeriod
	}

	if opts.Enable0RTT {
		qc.Allow0RTT = true
	}

	return qc
}

// enforceH3ALPN raises cfg to TLS 1.3 and ensures "h3" is offered, since an
// HTTP/3 listener that doesn't advertise it will never be selected by a
// peer's QUIC handshake.
func enforceH3ALPN(cfg *tls.Config) *tls.Config {
	c := enforceTLS13(cfg)
	if len(c.NextProtos) == 0 {
		if c == cfg {
			c = cfg.Clone()
		}

		c.NextProtos = []string{"h3"}
	}

	return c
}

// newSyncTransport builds a sync server's QUIC listener bound to addr,
// presenting tlsCfg (see generateFleetCert) and dispatching requests to h.
func newSyncTransport(addr string, tlsCfg *tls.Config, h http.Handler) *SyncTransport {
	srv := &http3.Server{Addr: addr, TLSConfig: enforceH3ALPN(tlsCfg), Handler: h}

	return &SyncTransport{srv: srv, addr: addr, errC: make(chan error, 1)}
}

// newSyncTransportWithOptions is newSyncTransport with explicit QUIC tuning.
func newSyncTransportWithOptions(addr string, tlsCfg *tls.Config, h http.Handler, opts PeerTransportOptions) *SyncTransport {
	srv := &http3.Server{
		Addr:       addr,
		TLSConfig:  enforceH3ALPN(tlsCfg),
		Handler:    h,
		QUICConfig: quicConfigFor(opts),
	}

	return &SyncTransport{srv: srv, addr: addr, errC: make(chan error, 1)}
}

// Start begins serving on an ephemeral UDP port if addr ends with ":0",
// returning the bound address actually listening.
func (s *SyncTransport) Start() (string, error) {
	pc, err := net.ListenPacket("udp", s.addr)
	if err != nil {
		return "", fmt.Errorf("distsync: binding sync listener on %s: %w", s.addr, err)
	}

	s.pc = pc
	realAddr := pc.LocalAddr().String()
	done := make(chan struct{})

	go func() {
		if err := s.srv.Serve(s.pc); err != nil {
			select {
			case s.errC <- err:
			default:
			}
		}

		close(done)
	}()

	s.close = func() error {
		_ = s.pc.Close()

		select {
		case <-done:
		case <-time.After(time.Second):
		}

		return nil
	}

	return realAddr, nil
}

// Stop shuts the listener down, waiting briefly for its serve goroutine to
// exit.
func (s *SyncTransport) Stop() error {
	if s.close != nil {
		return s.close()
	}

	return nil
}

// Error returns a channel that receives the transport's first serve error,
// if one ever occurs; it never blocks a send.
func (s *SyncTransport) Error() <-chan error {
	if s == nil || s.errC == nil {
		ch := make(chan error)
		close(ch)

		return ch
	}

	return s.errC
}

// newPeerHTTPClient builds an http.Client that speaks HTTP/3 to a fleet
// peer, enforcing TLS 1.3 on tlsCfg regardless of what the caller passed.
func newPeerHTTPClient(tlsCfg *tls.Config, timeout time.Duration) *http.Client {
	tr := &http3.Transport{TLSClientConfig: enforceH3ALPN(tlsCfg)}

	return &http.Client{Transport: tr, Timeout: timeout}
}

// newPeerHTTPClientWithOptions is newPeerHTTPClient with explicit QUIC
// tuning, used by peers on lossy links that want faster failover.
func newPeerHTTPClientWithOptions(tlsCfg *tls.Config, timeout time.Duration, opts PeerTransportOptions) *http.Client {
	tr := &http3.Transport{TLSClientConfig: enforceH3ALPN(tlsCfg), QUICConfig: quicConfigFor(opts)}

	return &http.Client{Transport: tr, Timeout: timeout}
}

// closePeerHTTPClient releases a client's underlying HTTP/3 round tripper.
func closePeerHTTPClient(c *http.Client) {
	if tr, ok := c.Transport.(*http3.Transport); ok {
		_ = tr.Close()
	}
}
