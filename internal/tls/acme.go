package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

// RenewWithin is how close to expiry a cached certificate is reported as due
const RenewWithin = 30 * 24 * time.Hour

// ACMEManager obtains dashboard certificates from Let's Encrypt on first use
type ACMEManager struct {
	manager *autocert.Manager
	cache   autocert.DirCache
	domains []string
}

// NewACMEManager creates a new ACME manager
func NewACMEManager(email string, domains []string, cacheDir string) *ACMEManager {
	cache := autocert.DirCache(cacheDir)
	return &ACMEManager{
		manager: &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Email:      email,
			HostPolicy: autocert.HostWhitelist(domains...),
			Cache:      cache,
		},
		cache:   cache,
		domains: domains,
	}
}

// Domains returns the list of configured domains
func (a *ACMEManager) Domains() []string {
	return a.domains
}

// TLSConfig returns TLS configuration for use with servers
func (a *ACMEManager) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: a.manager.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// HTTPHandler answers HTTP-01 challenges and passes everything else to fallback
func (a *ACMEManager) HTTPHandler(fallback http.Handler) http.Handler {
	return a.manager.HTTPHandler(fallback)
}

// CertificateInfo describes a cached certificate
type CertificateInfo struct {
	Domain   string
	NotAfter time.Time
	DaysLeft int
}

// Due reports whether the certificate expires within RenewWithin
func (c CertificateInfo) Due() bool {
	return time.Until(c.NotAfter) < RenewWithin
}

// CachedCertificates reads certificates from the cache without contacting
// Let's Encrypt. Domains without a usable cache entry are skipped.
func (a *ACMEManager) CachedCertificates(ctx context.Context) []CertificateInfo {
	var results []CertificateInfo
	for _, domain := range a.domains {
		data, err := a.cache.Get(ctx, domain)
		if err != nil {
			continue
		}

		// autocert stores the key and the chain in one PEM file
		cert, err := tls.X509KeyPair(data, data)
		if err != nil || len(cert.Certificate) == 0 {
			continue
		}

		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			continue
		}

		results = append(results, CertificateInfo{
			Domain:   domain,
			NotAfter: leaf.NotAfter,
			DaysLeft: int(time.Until(leaf.NotAfter).Hours() / 24),
		})
	}
	return results
}
