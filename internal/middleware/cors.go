// Package middleware provides HTTP middleware for the Sparring API.
package middleware

import "net/http"

// CORS returns middleware that handles cross-origin requests for the given
// allowed origins. Credentials are only permitted for explicitly listed
// origins; echoing a wildcard-matched origin with Allow-Credentials would
// open the API to CSRF.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	explicit := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		explicit[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (wildcard || explicit[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Add("Vary", "Origin")
				if explicit[origin] {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
