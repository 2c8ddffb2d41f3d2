package httpmiddleware

import (
	"net/http"
	"strings"
)

// CORSConfig configures cross-origin access for the POS API. Terminals are
// normally same-origin; the allow-list exists for kitchen displays and
// back-office dashboards served from other hosts.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to call the API. Empty means
	// same-origin only: no CORS headers are emitted at all.
	AllowOrigins []string
}

// allowedRequestHeaders covers everything the terminals send.
const allowedRequestHeaders = "Content-Type, X-CSRFToken, X-Request-ID"

// CORS returns a middleware granting the configured origins access to the
// API, including the CSRF header on preflight.
func CORS(cfg CORSConfig) Middleware {
	allowed := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")

			if _, ok := allowed[strings.ToLower(origin)]; !ok {
				if isPreflight(r) {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			// Session cookie auth requires credentialed requests.
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if isPreflight(r) {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", allowedRequestHeaders)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
