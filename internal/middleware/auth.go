package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/list42/internal/auth"
	"github.com/dukerupert/list42/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "list42_session"

// RequireAuth validates the session cookie and populates AuthContext.
// Requests without a valid session get a 401 JSON error.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := Authenticate(sessionStore, r)
			if !ok {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// Authenticate resolves the session cookie of r, if any.
func Authenticate(sessionStore *store.SessionStore, r *http.Request) (auth.AuthContext, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AuthContext{}, false
	}
	sess, err := sessionStore.GetByToken(cookie.Value)
	if err != nil || sess == nil {
		return auth.AuthContext{}, false
	}
	return auth.AuthContext{
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Token:     sess.Token,
	}, true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
