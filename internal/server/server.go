package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/list42/internal/handler"
	"github.com/dukerupert/list42/internal/metrics"
	"github.com/dukerupert/list42/internal/middleware"
	"github.com/dukerupert/list42/internal/store"
	ws "github.com/dukerupert/list42/internal/websocket"
)

const (
	signInLimit = 10
	redeemLimit = 20
	limitWindow = time.Minute
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	listH        *handler.ListHandler
	authH        *handler.AuthHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New()
	m.WatchHub(hub)

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	listStore := store.NewListStore(db)

	return &Server{
		db:           db,
		hub:          hub,
		listH:        handler.NewListHandler(listStore, hub, m, logger.With("component", "lists")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		metrics:      m,
		logger:       logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	protect := middleware.RequireAuth(s.sessionStore)
	authed := func(h http.HandlerFunc) http.Handler { return protect(h) }

	// Public routes
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("POST /api/auth/sign-in/email", s.rateLimited("sign-in", signInLimit, s.authH.SignIn))
	mux.HandleFunc("GET /api/auth/get-session", s.authH.Session)
	mux.HandleFunc("POST /api/auth/sign-out", s.authH.SignOut)

	// List store
	mux.Handle("GET /lists/{$}", authed(s.listH.Lists))
	mux.Handle("POST /lists/{$}", protect(s.rateLimited("redeem", redeemLimit, s.listH.Redeem)))
	mux.Handle("GET /lists/mine/share-code", authed(s.listH.ShareCode))
	mux.Handle("GET /lists/{id}", authed(s.listH.Get))
	mux.Handle("POST /lists/{id}/items", authed(s.listH.AddItem))
	mux.Handle("PUT /lists/{id}/items/{itemId}", authed(s.listH.UpdateItem))
	mux.Handle("DELETE /lists/{id}/items/{itemId}", authed(s.listH.DeleteItem))

	// Live updates
	mux.Handle("GET /ws", authed(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"))))

	return middleware.RequestLogger(s.logger.With("component", "http"), s.metrics)(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(route string, limit int, h http.HandlerFunc) http.Handler {
	onLimit := func(r *http.Request) {
		s.metrics.RecordRateLimited(route)
		s.logger.Warn("rate limited", "route", route, "remote", middleware.RealIP(r))
	}
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP(route), limit, limitWindow, onLimit)(h)
}
