package middleware

import (
	"log"
	"net/http"
	"strings"
)

// IsRequestSecure reports whether the request arrived over TLS, either
// directly or via a terminating proxy.
func IsRequestSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.Contains(r.Header.Get("X-Forwarded-Proto"), "https")
}

// RequireHTTPS redirects plain HTTP requests to their HTTPS equivalent.
// Intended for deployments behind a proxy that sets X-Forwarded-Proto.
func RequireHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsRequestSecure(r) {
			next.ServeHTTP(w, r)
			return
		}
		target := "https://" + r.Host + r.URL.RequestURI()
		log.Printf("redirecting insecure request to %s", target)
		http.Redirect(w, r, target, http.StatusFound)
	})
}
