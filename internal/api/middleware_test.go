package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthentication(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		token          string
		setupRequest   func(req *http.Request)
		expectedStatus int
	}{
		{
			name:           "No token configured - allow access",
			token:          "",
			setupRequest:   func(req *http.Request) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Token set - no auth provided",
			token:          "secret123",
			setupRequest:   func(req *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:  "Token set - wrong auth provided",
			token: "secret123",
			setupRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer wrongsecret")
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:  "Token set - correct Bearer token",
			token: "secret123",
			setupRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer secret123")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "Token set - correct X-API-Key header",
			token: "secret123",
			setupRequest: func(req *http.Request) {
				req.Header.Set("X-API-Key", "secret123")
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "Token set - query param is not accepted",
			token: "secret123",
			setupRequest: func(req *http.Request) {
				q := req.URL.Query()
				q.Add("api_key", "secret123")
				req.URL.RawQuery = q.Encode()
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setupRequest(req)

			rec := httptest.NewRecorder()
			Auth(tt.token)(nextHandler).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery(panicking).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	SecurityHeaders(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("expected DENY, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight must not reach the handler")
	})

	rec := httptest.NewRecorder()
	CORS(next).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
