// Package livesync listens to the list store's live-update socket and marks
// the matching cache entries stale.
package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/list42/internal/api"
	"github.com/dukerupert/list42/internal/cache"
)

const (
	typeListUpdated  = "grocery_list_updated"
	typeListsChanged = "grocery_lists_changed"

	defaultBackoff = 3 * time.Second
)

// Invalidator is the part of the cache a Syncer drives.
type Invalidator interface {
	Invalidate(tag cache.Tag)
	InvalidateList(listID string)
}

type message struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Extra map[string]any `json:"extra"`
}

type Syncer struct {
	url     string
	token   func() string
	target  Invalidator
	backoff time.Duration
	logger  *slog.Logger
}

type Option func(*Syncer)

// WithBackoff sets the pause between reconnect attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *Syncer) { s.backoff = d }
}

// New creates a Syncer for the list store at baseURL. token is read on
// every connection attempt so a new sign-in is picked up.
func New(baseURL string, token func() string, target Invalidator, logger *slog.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		url:     socketURL(baseURL),
		token:   token,
		target:  target,
		backoff: defaultBackoff,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run keeps a connection open until ctx ends. After a reconnect every cached
// entry is invalidated, since updates may have been missed while offline.
func (s *Syncer) Run(ctx context.Context) error {
	connected := false
	for {
		err := s.listen(ctx, connected)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			connected = true
		} else if errors.Is(err, api.ErrUnauthorized) {
			s.logger.Debug("live updates waiting for sign-in", "error", err)
		} else {
			s.logger.Warn("live updates disconnected", "error", err)
		}

		select {
		case <-time.After(s.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// listen runs one connection. It returns nil when a connection was
// established and later dropped.
func (s *Syncer) listen(ctx context.Context, reconnect bool) error {
	token := s.token()
	if token == "" {
		return api.ErrUnauthorized
	}
	conn, resp, err := ws.Dial(ctx, s.url, &ws.DialOptions{
		HTTPHeader: http.Header{"Cookie": {api.SessionCookieName + "=" + token}},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("dial %s: %w", s.url, api.ErrUnauthorized)
		}
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.CloseNow()

	s.logger.Info("live updates connected")
	if reconnect {
		s.target.Invalidate(cache.TagList)
		s.target.Invalidate(cache.TagLists)
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.logger.Debug("live updates read", "error", err)
			return nil
		}
		s.handle(data)
	}
}

func (s *Syncer) handle(data []byte) {
	var m message
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("live update decode", "error", err)
		return
	}
	switch m.Type {
	case typeListUpdated:
		listID, _ := m.Extra["list_id"].(string)
		if listID == "" {
			listID = m.ID
		}
		if listID == "" {
			return
		}
		s.logger.Debug("list updated remotely", "list_id", listID)
		s.target.InvalidateList(listID)
	case typeListsChanged:
		s.target.Invalidate(cache.TagLists)
	default:
		s.logger.Debug("live update ignored", "type", m.Type)
	}
}

func socketURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
