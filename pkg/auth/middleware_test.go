package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/mealplanner/pkg/logger"
)

// newTestStore returns a cookie store; RequireAuth only depends on sessions.Store.
func newTestStore() sessions.Store {
	return sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)
}

func newTestLogger() logger.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

// requestWithValue returns a request whose session cookie carries userID
// under the user key. A nil userID leaves the key unset.
func requestWithValue(t *testing.T, store sessions.Store, userID any) *http.Request {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/shopping-lists/x", http.NoBody)
	session, err := store.Get(r, sessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if userID != nil {
		session.Values[sessionUserIDKey] = userID
	}
	if err := session.Save(r, w); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/shopping-lists/x", http.NoBody)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSignIn_ThenRequireAuth(t *testing.T) {
	store := newTestStore()
	userID := uuid.New()

	w := httptest.NewRecorder()
	if err := SignIn(w, httptest.NewRequest(http.MethodPost, "/login", http.NoBody), store, userID); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/shopping-lists/x", http.NoBody)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	var got uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	RequireAuth(store, newTestLogger())(next).ServeHTTP(rr, r)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got != userID {
		t.Fatalf("expected user %v in context, got %v", userID, got)
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	store := newTestStore()

	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{"no cookie", func(*testing.T) *http.Request {
			return httptest.NewRequest(http.MethodGet, "/api/shopping-lists/x", http.NoBody)
		}},
		{"tampered cookie", func(*testing.T) *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/api/shopping-lists/x", http.NoBody)
			r.AddCookie(&http.Cookie{Name: sessionName, Value: "garbage"})
			return r
		}},
		{"session without user", func(t *testing.T) *http.Request {
			return requestWithValue(t, store, nil)
		}},
		{"empty user", func(t *testing.T) *http.Request {
			return requestWithValue(t, store, "")
		}},
		{"malformed user", func(t *testing.T) *http.Request {
			return requestWithValue(t, store, "not-a-valid-uuid")
		}},
		{"user of wrong type", func(t *testing.T) *http.Request {
			return requestWithValue(t, store, 42)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("next handler should not be called")
			})
			rr := httptest.NewRecorder()
			RequireAuth(store, newTestLogger())(next).ServeHTTP(rr, tc.req(t))

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != "authentication required" {
				t.Errorf("unexpected body: %v", body)
			}
		})
	}
}
