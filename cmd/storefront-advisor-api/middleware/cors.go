// Package middleware provides HTTP middleware for the Storefront Advisor API.
package middleware

import (
	"net/http"
	"strings"
)

// ResolveOrigin picks the Access-Control-Allow-Origin value for a request origin.
// An empty list or a "*" entry allows everything; an unlisted origin gets the first entry.
func ResolveOrigin(origin string, allowList []string) string {
	if len(allowList) == 0 {
		return "*"
	}
	for _, o := range allowList {
		if o == "*" {
			return "*"
		}
	}
	for _, o := range allowList {
		if o == origin {
			return origin
		}
	}
	return allowList[0]
}

// CORS returns a middleware that sets CORS headers for the given methods and
// answers OPTIONS preflight requests with 200.
func CORS(allowedOrigins []string, methods ...string) func(http.Handler) http.Handler {
	allowMethods := strings.Join(append(methods, http.MethodOptions), ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", ResolveOrigin(r.Header.Get("Origin"), allowedOrigins))
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
