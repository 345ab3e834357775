package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/securecookie"
)

// These tests cover the paths that never reach Redis, so the store has no client.
func newCookieOnlyStore() *RedisStore {
	return NewSessionStore(nil,
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
		true,
	)
}

func TestRedisStore_NewWithoutCookie(t *testing.T) {
	s := newCookieOnlyStore()
	session, err := s.New(httptest.NewRequest(http.MethodGet, "/", http.NoBody), sessionName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.IsNew || session.ID != "" {
		t.Fatalf("expected a fresh session, got IsNew=%v ID=%q", session.IsNew, session.ID)
	}
	if !session.Options.HttpOnly || !session.Options.Secure || session.Options.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie options: %+v", session.Options)
	}
}

func TestRedisStore_NewWithForeignCookie(t *testing.T) {
	s := newCookieOnlyStore()
	foreign := securecookie.New(securecookie.GenerateRandomKey(32), securecookie.GenerateRandomKey(32))
	value, err := foreign.Encode(sessionName, "some-session-id")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	r.AddCookie(&http.Cookie{Name: sessionName, Value: value})

	session, err := s.New(r, sessionName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.IsNew || session.ID != "" {
		t.Fatalf("cookie signed with other keys must be ignored, got ID=%q", session.ID)
	}
}

func TestRedisStore_SaveExpiredNewSessionClearsCookie(t *testing.T) {
	s := newCookieOnlyStore()
	r := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	session, _ := s.New(r, sessionName)
	session.Options.MaxAge = -1

	w := httptest.NewRecorder()
	if err := s.Save(r, w, session); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != "" || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring empty cookie, got %+v", cookies)
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := newSessionID(), newSessionID()
	if a == b {
		t.Fatal("session ids must be random")
	}
	// 32 random bytes in unpadded base32.
	if len(a) != 52 {
		t.Errorf("unexpected id length %d", len(a))
	}
}
