package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestSecureHeaders(t *testing.T) {
	h := SecureHeaders(false)(http.HandlerFunc(okHandler))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'self'",
	}
	for header, expected := range want {
		if got := rr.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{" , ", []string{"*"}},
		{"https://app.example.com", []string{"https://app.example.com"}},
		{"https://a.example.com, http://localhost:3000 ,", []string{"https://a.example.com", "http://localhost:3000"}},
	}
	for _, tc := range tests {
		if got := parseOrigins(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCORSMiddleware_AllowsPatchPreflight(t *testing.T) {
	h := CORSMiddleware("https://app.example.com")(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodOptions, "/api/shopping-lists/x/items/y", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin: got %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPatch) {
		t.Errorf("Allow-Methods: got %q, want PATCH", got)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int64
		bodySize int
		wantCode int
	}{
		{"within limit", 100, 50, http.StatusOK},
		{"at limit", 10, 10, http.StatusOK},
		{"over limit", 10, 11, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.ReadAll(r.Body); err != nil {
					http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
					return
				}
				w.WriteHeader(http.StatusOK)
			})
			h := RequestBodyLimit(tc.limit)(inner)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", tc.bodySize))))

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d", tc.wantCode, rr.Code)
			}
		})
	}
}

func TestServerConfig_WithDefaults(t *testing.T) {
	got := ServerConfig{}.withDefaults()
	if got.RequestsPerMinute != defaultRequestsPerMinute ||
		got.MaxBodyBytes != defaultMaxBodyBytes ||
		got.HandlerTimeout != defaultHandlerTimeout {
		t.Errorf("unexpected defaults: %+v", got)
	}

	custom := ServerConfig{RequestsPerMinute: 5, MaxBodyBytes: 1, HandlerTimeout: 1}.withDefaults()
	if custom.RequestsPerMinute != 5 || custom.MaxBodyBytes != 1 || custom.HandlerTimeout != 1 {
		t.Errorf("custom values overwritten: %+v", custom)
	}
}

func TestNewRouter_OuterMiddlewareSeesRequestID(t *testing.T) {
	var order []string
	var reqID string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				if name == "logger" {
					reqID = middleware.GetReqID(r.Context())
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewRouter(ServerConfig{IsDevelopment: true}, mw("recovery"), mw("logger"))
	r.Get("/ping", okHandler)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !reflect.DeepEqual(order, []string{"recovery", "logger"}) {
		t.Errorf("middleware order: got %v", order)
	}
	if reqID == "" {
		t.Error("expected request id to be set before inner middleware runs")
	}
}
