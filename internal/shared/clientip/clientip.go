package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Resolver extracts the client address used for rate limiting and spam
// screening. X-Forwarded-For is only honored when the direct peer is a
// configured trusted proxy; otherwise a spoofed header would let a
// client rotate identities at will.
type Resolver struct {
	trustedProxies map[string]bool
}

func NewResolver(trustedProxies []string) Resolver {
	trusted := make(map[string]bool, len(trustedProxies))
	for _, proxy := range trustedProxies {
		proxy = strings.TrimSpace(proxy)
		if proxy != "" {
			trusted[proxy] = true
		}
	}
	return Resolver{trustedProxies: trusted}
}

func (res Resolver) ClientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if !res.trustedProxies[peer] {
		return peer
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		forwarded = r.Header.Get("X-Real-Ip")
	}
	// Rightmost non-trusted hop is the address the trusted proxy saw.
	parts := strings.Split(forwarded, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		candidate := hostOnly(strings.TrimSpace(parts[i]))
		if candidate == "" || res.trustedProxies[candidate] {
			continue
		}
		if net.ParseIP(candidate) != nil {
			return candidate
		}
	}
	return peer
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.TrimSpace(addr)
}
