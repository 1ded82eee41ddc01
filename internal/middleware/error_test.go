package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

func TestErrorHandler_NoPanic(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	w := httptest.NewRecorder()
	ErrorHandler(zap.NewNop())(handler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestErrorHandler_PanicRecovery(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	ErrorHandler(nil)(handler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Success {
		t.Error("Expected success=false")
	}
	if body.Path != "/test" {
		t.Errorf("Expected path '/test', got '%s'", body.Path)
	}
	if strings.Contains(body.Message, "test panic") {
		t.Error("Expected panic value not to leak into the response")
	}
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		maxBytes    int64
		wantStatus  int
	}{
		{name: "json post", method: "POST", body: `{"steps":10}`, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "bodyless post", method: "POST", wantStatus: http.StatusOK},
		{name: "get ignores content type", method: "GET", wantStatus: http.StatusOK},
		{name: "form post", method: "POST", body: "steps=10", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "missing content type", method: "POST", body: `{}`, wantStatus: http.StatusUnsupportedMediaType},
		{name: "too large", method: "POST", body: strings.Repeat("x", 32), contentType: "application/json", maxBytes: 16, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, "/api/v1/steps", strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, "/api/v1/steps", nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			JSONBody(tt.maxBytes, nil)(handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"http://localhost:5173/, http://localhost:5173", ""})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		origin string
		allow  bool
	}{
		{name: "allowed origin", origin: "http://localhost:5173", allow: true},
		{name: "other origin", origin: "http://evil.example", allow: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/v1/state", nil)
		req.Header.Set("Origin", tt.origin)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Allow-Origin")
		if tt.allow && got != tt.origin {
			t.Errorf("%s: expected allow header %q, got %q", tt.name, tt.origin, got)
		}
		if !tt.allow && got != "" {
			t.Errorf("%s: expected no allow header, got %q", tt.name, got)
		}
	}

	if got := normalizeOrigins(nil); len(got) != 1 || got[0] != DefaultAllowedOrigin {
		t.Errorf("Expected default origin, got %v", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Missing security headers: %v", w.Header())
	}
}
