package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a live-update notification sent to a user's clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// newMessage creates a Message with the Type field derived from entity and action.
func newMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// ListUpdated tells a member that the list they know as listID changed.
func ListUpdated(listID string) Message {
	return newMessage("grocery_list", "updated", listID, map[string]any{"list_id": listID})
}

// ListsChanged tells a user that the set of lists they can see changed.
func ListsChanged() Message {
	return newMessage("grocery_lists", "changed", "", nil)
}

// Hub tracks live-update connections by user. A user may have several
// clients open at once.
type Hub struct {
	mu     sync.RWMutex
	users  map[string]map[*Client]struct{}
	count  int
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		users:  make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.users[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	if _, ok := set[c]; !ok {
		set[c] = struct{}{}
		h.count++
	}
}

// Unregister removes c and closes its send channel. Unregistering twice is
// harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.users[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	h.count--
	close(c.send)
}

// SendToUser queues msg for every client of userID and returns how many
// clients took it. A client whose buffer is full misses the message.
func (h *Hub) SendToUser(userID string, msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.users[userID]
	if len(set) == 0 {
		return 0
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal live update", "type", msg.Type, "error", err)
		return 0
	}

	sent := 0
	for c := range set {
		select {
		case c.send <- data:
			sent++
		default:
			h.logger.Debug("live update dropped, client buffer full", "user_id", userID, "type", msg.Type)
		}
	}
	return sent
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// UserCount returns the number of users with at least one open connection.
func (h *Hub) UserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}
