package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/list42/internal/auth"
	"github.com/dukerupert/list42/internal/database"
	"github.com/dukerupert/list42/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewUserStore(db)
}

func unreachable(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("should not reach handler")
	})
}

func TestRequireAuthNoCookie(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	rec := httptest.NewRecorder()
	RequireAuth(ss)(unreachable(t)).ServeHTTP(rec, httptest.NewRequest("GET", "/lists/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	req := httptest.NewRequest("GET", "/lists/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	RequireAuth(ss)(unreachable(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthValidSession(t *testing.T) {
	ss, us := setupAuthMiddlewareDB(t)

	u, err := us.Create("alice@example.com", "Alice", "pw")
	require.NoError(t, err)
	sess, err := ss.Create(u.ID)
	require.NoError(t, err)

	var gotAC auth.AuthContext
	var found bool
	handler := RequireAuth(ss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAC, found = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/lists/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, found, "expected AuthContext in request context")
	assert.Equal(t, u.ID, gotAC.UserID)
	assert.Equal(t, sess.ID, gotAC.SessionID)
}
