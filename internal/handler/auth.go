package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/list42/internal/middleware"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userStore: us, sessionStore: ss, logger: logger}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /api/auth/sign-in/email.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.userStore.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Error("sign in lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(store.SessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	h.logger.Info("signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, model.SessionInfo{User: *user, Session: *sess})
}

// Session handles GET /api/auth/get-session. Without a valid session the
// body is JSON null.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.Authenticate(h.sessionStore, r)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil {
		h.logger.Error("session user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	if user == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	sess, err := h.sessionStore.GetByToken(ac.Token)
	if err != nil || sess == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, model.SessionInfo{User: *user, Session: *sess})
}

// SignOut handles POST /api/auth/sign-out.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if ac, ok := middleware.Authenticate(h.sessionStore, r); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
