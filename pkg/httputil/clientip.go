package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address with a fixed preference
// order: X-Forwarded-For (first hop), then X-Real-IP, then the direct
// connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if ip := firstForwardedHop(fwd); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func firstForwardedHop(header string) string {
	parts := strings.Split(header, ",")
	return strings.TrimSpace(parts[0])
}
