package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultMaxRequestSize is the default maximum request body size (64KB)
const DefaultMaxRequestSize int64 = 64 << 10

// JSONBody bounds request bodies and requires a JSON content type on
// requests that carry one. Bodyless POSTs such as completing a workout pass.
func JSONBody(maxBytes int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				respondErrorJSON(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body is too large", logger)
				return
			}
			if hasBody(r) {
				contentType := strings.ToLower(r.Header.Get("Content-Type"))
				if !strings.HasPrefix(contentType, "application/json") {
					respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", logger)
					return
				}
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	return r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody
}
