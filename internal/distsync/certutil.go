package distsync

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// fleetCertValidity is how long a self-signed fleet certificate is valid
// for when the caller doesn't specify a duration: long enough to outlast
// a single fuzzing campaign, short enough not to matter if the private key
// never leaves the host that generated it.
const fleetCertValidity = 24 * time.Hour

// generateFleetCert mints an in-memory, self-signed TLS 1.3 certificate
// covering hosts, for a sync server to present to peers on its private
// fleet network. There is no CA: peers pin against InsecureSkipVerify (see
// NewClient) rather than a certificate chain, since fleet sync is meant to
// run on a trusted network rather than authenticate peers against a
// public root store.
func generateFleetCert(hosts []string, validFor time.Duration) (*tls.Config, error) {
	if validFor <= 0 {
		validFor = fleetCertValidity
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("distsync: generating fleet cert key: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(validFor),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}

	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		} else {
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("distsync: signing fleet cert: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("distsync: pairing fleet cert: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{"h3", "h2", "http/1.1"},
	}, nil
}

// loadPinnedPeerCert loads a server-side TLS config from an operator-
// provisioned certificate/key pair, for fleets that pin a real certificate
// across restarts instead of re-minting a self-signed one every launch.
func loadPinnedPeerCert(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("distsync: loading pinned peer cert: %w", err)
	}

	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS13}, nil
}

// writePeerCertPEM persists cert's leaf certificate and RSA private key as
// PEM files, for operators who want to promote an auto-generated fleet
// cert (see generateFleetCert) to a pinned one reused across restarts.
func writePeerCertPEM(cert *tls.Certificate, certPath, keyPath string) error {
	if cert == nil || len(cert.Certificate) == 0 {
		return fmt.Errorf("distsync: writePeerCertPEM: %w", os.ErrInvalid)
	}

	leafPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Certificate[0]})
	if err := os.WriteFile(certPath, leafPEM, 0o644); err != nil {
		return fmt.Errorf("distsync: writing peer cert: %w", err)
	}

	key, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("distsync: writePeerCertPEM: unsupported or missing private key type %T", cert.PrivateKey)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return fmt.Errorf("distsync: writing peer key: %w", err)
	}

	return nil
}
