// Package ipfilter restricts who may reach the served dashboard and its
// metrics endpoint.
package ipfilter

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// Filter holds the allowed networks. An empty filter allows everyone.
type Filter struct {
	nets   []*net.IPNet
	scope  string
	logger *slog.Logger
}

// New parses IPs and CIDRs. Invalid entries are logged and skipped.
// scope names the protected surface in log lines, e.g. "dashboard".
func New(scope string, allowed []string, logger *slog.Logger) *Filter {
	f := &Filter{scope: scope, logger: logger}

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		n, err := parseNet(entry)
		if err != nil {
			logger.Warn("ignoring invalid allowed_ips entry", "scope", scope, "entry", entry, "error", err)
			continue
		}
		f.nets = append(f.nets, n)
	}
	return f
}

func parseNet(entry string) (*net.IPNet, error) {
	if strings.Contains(entry, "/") {
		_, n, err := net.ParseCIDR(entry)
		return n, err
	}
	ip := net.ParseIP(entry)
	if ip == nil {
		return nil, &net.ParseError{Type: "IP address", Text: entry}
	}
	bits := 128
	if ip.To4() != nil {
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// Enabled reports whether any network was configured
func (f *Filter) Enabled() bool {
	return len(f.nets) > 0
}

// Allows reports whether ip may pass. A nil ip passes only an empty filter.
func (f *Filter) Allows(ip net.IP) bool {
	if !f.Enabled() {
		return true
	}
	if ip == nil {
		return false
	}
	for _, n := range f.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// RemoteIP returns the address in r.RemoteAddr. Behind a proxy chi's RealIP
// middleware must run first so forwarded headers are already applied.
func RemoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}

// Middleware answers 403 to clients outside the allowed networks
func (f *Filter) Middleware(next http.Handler) http.Handler {
	if !f.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RemoteIP(r)
		if !f.Allows(ip) {
			f.logger.Warn("access denied by IP filter", "scope", f.scope, "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
