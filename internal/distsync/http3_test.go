package distsync

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	http3 "github.com/quic-go/quic-go/http3"
)

func genPeerCert(t *testing.T) *tls.Config {
	t.Helper()

	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		DNSNames:     []string{"localhost"},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, _ := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	pair, _ := tls.X509KeyPair(certPEM, keyPEM)

	return &tls.Config{Certificates: []tls.Certificate{pair}, MinVersion: tls.VersionTLS12}
}

func TestNewPeerHTTPClientEnforcesTLS13(t *testing.T) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	cli := newPeerHTTPClient(cfg, 2*time.Second)

	tr, ok := cli.Transport.(*http3.Transport)
	if !ok {
		t.Fatalf("transport is not http3.Transport: %T", cli.Transport)
	}

	if tr.TLSClientConfig == nil || tr.TLSClientConfig.MinVersion != tls.VersionTLS13 {
		t.Fatalf("client MinVersion not enforced to TLS1.3: got %#v", tr.TLSClientConfig)
	}
}

func TestNewSyncTransportEnforcesTLS13(t *testing.T) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	s := newSyncTransport("127.0.0.1:0", cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if s == nil || s.srv == nil || s.srv.TLSConfig == nil {
		t.Fatal("transport or TLS config is nil")
	}

	if s.srv.TLSConfig.MinVersion != tls.VersionTLS13 {
		t.Fatalf("server MinVersion not enforced to TLS1.3: got %v", s.srv.TLSConfig.MinVersion)
	}
}

func TestSyncTransportLoopback(t *testing.T) {
	srvTLS := genPeerCert(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("pong")) })

	s := newSyncTransport("127.0.0.1:0", srvTLS, mux)

	addr, err := s.Start()
	if err != nil {
		t.Skip("http3 not supported here:", err)
	}
	defer s.Stop()

	cli := newPeerHTTPClient(&tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}, 2*time.Second)
	defer closePeerHTTPClient(cli)

	resp, err := cli.Get("https://" + addr + "/ping")
	if err != nil {
		t.Skip("http3 dial failed:", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if string(b) != "pong" {
		t.Fatalf("unexpected: %q", string(b))
	}
}

func TestSyncTransportProtoIsH3(t *testing.T) {
	srvTLS := genPeerCert(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/p", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })

	s := newSyncTransportWithOptions("127.0.0.1:0", srvTLS, mux, PeerTransportOptions{KeepAlivePeriod: 200 * time.Millisecond})

	addr, err := s.Start()
	if err != nil {
		t.Skip("http3 not supported:", err)
	}
	defer s.Stop()

	cli := newPeerHTTPClientWithOptions(&tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}, 2*time.Second, PeerTransportOptions{Enable0RTT: true})
	defer closePeerHTTPClient(cli)

	resp, err := cli.Get("https://" + addr + "/p")
	if err != nil {
		t.Skip("http3 dial failed:", err)
	}
	defer resp.Body.Close()

	if resp.ProtoMajor != 3 {
		t.Fatalf("expected HTTP/3, got %s", resp.Proto)
	}
}
