// Package clientip resolves the client address of an HTTP request.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP for r.
// Proxy headers are consulted only when trustProxy is set, which asserts exactly one trusted proxy
// in front of the server. That proxy appends the peer it saw, so the rightmost X-Forwarded-For
// entry is used; everything to its left is client-supplied. X-Real-IP is the fallback.
// Returns nil when no address can be parsed.
func FromRequest(r *http.Request, trustProxy bool) net.IP {
	if r == nil {
		return nil
	}
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Values("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return net.ParseIP(strings.TrimSpace(r.RemoteAddr))
}

// String returns FromRequest as text, or "unknown".
func String(r *http.Request, trustProxy bool) string {
	if ip := FromRequest(r, trustProxy); ip != nil {
		return ip.String()
	}
	return "unknown"
}

// parseForwardedIP returns the rightmost entry of an X-Forwarded-For list.
// Multiple header lines are treated as one comma-joined list.
func parseForwardedIP(values []string) net.IP {
	for i := len(values) - 1; i >= 0; i-- {
		parts := strings.Split(values[i], ",")
		for j := len(parts) - 1; j >= 0; j-- {
			p := strings.TrimSpace(parts[j])
			if p == "" {
				continue
			}
			// The trusted hop wrote this entry; if it is not an IP, do not look further left.
			return net.ParseIP(p)
		}
	}
	return nil
}
