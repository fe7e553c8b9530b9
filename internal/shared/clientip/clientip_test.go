package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestUntrustedPeerIgnoresForwardedHeader(t *testing.T) {
	resolver := NewResolver(nil)

	req := httptest.NewRequest("POST", "/endorsements", nil)
	req.RemoteAddr = "198.51.100.7:41234"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	if got := resolver.ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("expected peer address, got %q", got)
	}
}

func TestTrustedProxyUsesRightmostExternalHop(t *testing.T) {
	resolver := NewResolver([]string{"192.0.2.10"})

	req := httptest.NewRequest("POST", "/endorsements", nil)
	req.RemoteAddr = "192.0.2.10:8443"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7, 192.0.2.10")

	if got := resolver.ClientIP(req); got != "198.51.100.7" {
		t.Fatalf("expected rightmost external hop, got %q", got)
	}
}

func TestTrustedProxyFallsBackToRealIP(t *testing.T) {
	resolver := NewResolver([]string{"192.0.2.10"})

	req := httptest.NewRequest("POST", "/endorsements", nil)
	req.RemoteAddr = "192.0.2.10:8443"
	req.Header.Set("X-Real-Ip", "203.0.113.5")

	if got := resolver.ClientIP(req); got != "203.0.113.5" {
		t.Fatalf("expected X-Real-Ip value, got %q", got)
	}
}

func TestGarbageForwardedValueFallsBackToPeer(t *testing.T) {
	resolver := NewResolver([]string{"192.0.2.10"})

	req := httptest.NewRequest("POST", "/endorsements", nil)
	req.RemoteAddr = "192.0.2.10:8443"
	req.Header.Set("X-Forwarded-For", "not-an-address")

	if got := resolver.ClientIP(req); got != "192.0.2.10" {
		t.Fatalf("expected trusted peer fallback, got %q", got)
	}
}
