package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"mercator-hq/courier/pkg/config"
)

// ClientConfig holds client-side TLS settings for upstreams reached through
// an intercepting proxy.
type ClientConfig struct {
	// CACertFile is a PEM bundle added to the system roots. An intercepting
	// proxy re-signs upstream certificates with this CA.
	CACertFile string

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool

	// MinVersion is the minimum TLS version ("1.2" or "1.3").
	// Default: "1.2"
	MinVersion string

	// ServerName overrides the SNI server name.
	ServerName string
}

// FromConfig builds a ClientConfig from the proxy TLS section.
func FromConfig(cfg config.TLSConfig) *ClientConfig {
	return &ClientConfig{
		CACertFile:         cfg.CACertFile,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MinVersion:         cfg.MinVersion,
		ServerName:         cfg.ServerName,
	}
}

// ToTLSConfig converts ClientConfig to crypto/tls.Config.
// When no CA file is configured the system roots are used as-is.
// A configured CA must parse and be within its validity period.
func (c *ClientConfig) ToTLSConfig() (*tls.Config, error) {
	// #nosec G402 - InsecureSkipVerify is an explicit opt-in
	tlsConfig := &tls.Config{
		MinVersion:         c.parseTLSVersion(),
		InsecureSkipVerify: c.InsecureSkipVerify,
		ServerName:         c.ServerName,
	}

	if c.CACertFile == "" {
		return tlsConfig, nil
	}

	pool, err := c.rootPool()
	if err != nil {
		return nil, err
	}
	tlsConfig.RootCAs = pool

	return tlsConfig, nil
}

// rootPool returns the system pool extended with the configured CA bundle.
func (c *ClientConfig) rootPool() (*x509.CertPool, error) {
	certs, err := LoadCertificates(c.CACertFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxy CA: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	for _, cert := range certs {
		if err := ValidateX509Certificate(cert); err != nil {
			return nil, fmt.Errorf("proxy CA %q: %w", cert.Subject.CommonName, err)
		}
		pool.AddCert(cert)
	}

	return pool, nil
}

// parseTLSVersion converts the MinVersion string to a tls.Version constant.
// Supported versions: "1.2" (default), "1.3".
func (c *ClientConfig) parseTLSVersion() uint16 {
	switch c.MinVersion {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// LoadCertificates reads every CERTIFICATE block from a PEM file.
func LoadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	certs, err := ParseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return certs, nil
}
