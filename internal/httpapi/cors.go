package httpapi

import "net/http"

// CORS returns middleware that handles CORS headers for the frontend origin.
// Requests without an Origin header get no CORS headers at all; a wildcard
// configuration answers with a literal "*" rather than echoing the origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if allowed := resolveOrigin(allowedOrigins, origin); allowed != "" {
					w.Header().Set("Access-Control-Allow-Origin", allowed)
					w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Correlation-Id")
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

func resolveOrigin(allowedOrigins []string, origin string) string {
	for _, o := range allowedOrigins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}
