// Package netx normalises the network origins a caller claims: client
// domains and IP addresses.
package netx

import (
	"net/netip"
	"strings"
)

// NormalizeIP returns the canonical text of an IP given either bare
// ("192.0.2.4", "2001:db8::1") or with a port ("192.0.2.4:8080",
// "[2001:db8::1]:443"). Zones are dropped and IPv4-mapped IPv6 addresses
// are unmapped. ok is false when raw does not contain an IP.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return canonical(ap.Addr()), true
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return canonical(addr), true
	}
	// bracketed IPv6 without a numeric port
	if strings.HasPrefix(raw, "[") {
		if end := strings.Index(raw, "]"); end > 0 {
			if addr, err := netip.ParseAddr(raw[1:end]); err == nil {
				return canonical(addr), true
			}
		}
	}
	return raw, false
}

func canonical(addr netip.Addr) string {
	return addr.WithZone("").Unmap().String()
}

// NormalizeDomain trims whitespace and trailing slashes and lower-cases a
// claimed client domain, so "https://App.example.com/" and
// "https://app.example.com" are the same tenant.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimRight(d, "/")
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
