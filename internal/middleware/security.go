package middleware

import (
	"net/http"
	"strings"
)

const (
	apiCSP = "default-src 'none'; frame-ancestors 'none'"
	// appCSP allows the single page app to load its own bundles and the
	// Google profile pictures shown in the navbar.
	appCSP = "default-src 'self'; img-src 'self' data: https://*.googleusercontent.com; " +
		"style-src 'self' 'unsafe-inline'; connect-src 'self'; frame-ancestors 'none'"
)

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool
	// APIPrefixes are paths served as JSON. Everything else is the frontend
	// and gets a CSP that lets the app run, and no Cache-Control override.
	APIPrefixes []string
}

// DefaultAPIPrefixes lists the server-owned path prefixes.
var DefaultAPIPrefixes = []string{"/api/", "/oauth2/", "/login/", "/logout", "/healthz", "/readyz", "/metrics"}

// Security applies security headers to every response.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	prefixes := cfg.APIPrefixes
	if len(prefixes) == 0 {
		prefixes = DefaultAPIPrefixes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			}

			if hasAnyPrefix(r.URL.Path, prefixes) {
				h.Set("Content-Security-Policy", apiCSP)
				h.Set("Cache-Control", "no-store")
			} else {
				h.Set("Content-Security-Policy", appCSP)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// MaxBodySize rejects bodies declared larger than maxBytes and caps
// streamed bodies at the same size.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
