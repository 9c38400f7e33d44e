package clientip

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are the proxy headers consulted by GetIP, highest priority first.
// X-Forwarded-For may hold a list; its first valid entry is used.
var DefaultHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

var defaultResolver = NewResolver(DefaultHeaders...)

// GetIP returns the client address of r using DefaultHeaders, falling back to
// the peer address. It returns an empty string when no valid address is found.
func GetIP(r *http.Request) string {
	return defaultResolver.Resolve(r)
}

// Resolver extracts client addresses from requests using a fixed list of
// trusted proxy headers.
type Resolver struct {
	headers []string
}

// NewResolver creates a resolver that trusts the given headers in order.
// With no headers only the peer address is used.
func NewResolver(headers ...string) *Resolver {
	clean := make([]string, 0, len(headers))
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			clean = append(clean, http.CanonicalHeaderKey(h))
		}
	}
	return &Resolver{headers: clean}
}

// Resolve returns the normalized client address of r, or "" if none is valid.
func (res *Resolver) Resolve(r *http.Request) string {
	for _, h := range res.headers {
		for _, value := range r.Header.Values(h) {
			for candidate := range strings.SplitSeq(value, ",") {
				if ip := normalize(candidate); ip != "" {
					return ip
				}
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

// normalize validates an address and returns its canonical text form.
// Zoned IPv6 addresses are rejected and IPv4-mapped IPv6 addresses are unmapped.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return ""
	}
	return addr.Unmap().String()
}
