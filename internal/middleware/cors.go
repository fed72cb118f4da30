// Package middleware provides HTTP middleware for the bridge API.
package middleware

import "net/http"

// CORS returns middleware that allows the configured frontend origin to call
// the API. An empty origin (development, frontend served by the bridge
// itself) allows any origin without credentials.
func CORS(frontendOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case frontendOrigin == "" && origin != "":
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin == frontendOrigin && origin != "":
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
