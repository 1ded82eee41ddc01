package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// DefaultAllowedOrigin is the frontend dev server origin
const DefaultAllowedOrigin = "http://localhost:3000"

// CORS wraps rs/cors for the local API. Empty and duplicate origins are
// dropped; with nothing left the frontend dev server origin is allowed.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := normalizeOrigins(allowedOrigins)
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           86400,
	})
	return c.Handler
}

func normalizeOrigins(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			origin := strings.TrimRight(strings.TrimSpace(part), "/")
			if origin == "" || seen[origin] {
				continue
			}
			seen[origin] = true
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultAllowedOrigin)
	}
	return out
}
