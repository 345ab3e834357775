package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/mealplanner/pkg/httpx"
	"github.com/ghuser/mealplanner/pkg/logger"
)

const (
	sessionName      = "mealplanner_session"
	sessionUserIDKey = "user_id"
)

var errNoSessionUser = errors.New("session has no user")

// RequireAuth rejects requests without a signed-in session with 401 and
// otherwise stores the user ID in the request context for UserIDFromCtx.
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessionUser(r, store)
			if err != nil {
				log.WarnContext(r.Context(), "unauthenticated request", "path", r.URL.Path, "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// SignIn records userID in the session and writes the cookie. It is the
// counterpart of RequireAuth for whichever service performs the login.
func SignIn(w http.ResponseWriter, r *http.Request, store sessions.Store, userID uuid.UUID) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	session.Values[sessionUserIDKey] = userID.String()
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func sessionUser(r *http.Request, store sessions.Store) (uuid.UUID, error) {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load session: %w", err)
	}
	raw, ok := session.Values[sessionUserIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, errNoSessionUser
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session user id: %w", err)
	}
	return userID, nil
}
