package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/list42/internal/auth"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/store"
	"github.com/dukerupert/list42/internal/websocket"
)

// Recorder counts list operations.
type Recorder interface {
	RecordMutation(op string, err error)
	RecordRedeem(err error)
}

type ListHandler struct {
	lists   *store.ListStore
	hub     *websocket.Hub
	metrics Recorder
	logger  *slog.Logger
}

// NewListHandler creates a ListHandler. hub and metrics may be nil.
func NewListHandler(ls *store.ListStore, hub *websocket.Hub, metrics Recorder, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, hub: hub, metrics: metrics, logger: logger}
}

func (h *ListHandler) Lists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.Lists(auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "list lists", err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.lists.Get(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.fail(w, "get list", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item model.GroceryItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	userID, listID := auth.UserID(r.Context()), r.PathValue("id")
	list, err := h.lists.AddItem(userID, listID, item)
	h.mutated("add", userID, listID, err)
	if err != nil {
		h.fail(w, "add item", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var item model.GroceryItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	item.ID = r.PathValue("itemId")
	userID, listID := auth.UserID(r.Context()), r.PathValue("id")
	list, err := h.lists.UpdateItem(userID, listID, item)
	h.mutated("update", userID, listID, err)
	if err != nil {
		h.fail(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, listID := auth.UserID(r.Context()), r.PathValue("id")
	list, err := h.lists.DeleteItem(userID, listID, r.PathValue("itemId"))
	h.mutated("delete", userID, listID, err)
	if err != nil {
		h.fail(w, "delete item", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Redeem handles POST /lists/?shared=<code>.
func (h *ListHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("shared")
	if code == "" {
		writeError(w, http.StatusBadRequest, "shared is required")
		return
	}
	userID := auth.UserID(r.Context())
	list, err := h.lists.Redeem(userID, code)
	if h.metrics != nil {
		h.metrics.RecordRedeem(err)
	}
	if err != nil {
		h.fail(w, "redeem share code", err)
		return
	}
	h.logger.Info("share code redeemed", "user_id", userID, "list_id", list.ID)
	if h.hub != nil {
		h.hub.SendToUser(userID, websocket.ListsChanged())
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) ShareCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.lists.ShareCode(auth.UserID(r.Context()))
	if err != nil {
		h.fail(w, "get share code", err)
		return
	}
	writeJSON(w, http.StatusOK, code)
}

// mutated records a mutation and tells every member of the list about it.
func (h *ListHandler) mutated(op, userID, listID string, err error) {
	if h.metrics != nil {
		h.metrics.RecordMutation(op, err)
	}
	if err != nil || h.hub == nil {
		return
	}
	realID, err := h.lists.RealID(userID, listID)
	if err != nil {
		h.logger.Warn("resolve list for notification", "list_id", listID, "error", err)
		return
	}
	members, err := h.lists.Members(realID)
	if err != nil {
		h.logger.Warn("list members for notification", "list_id", realID, "error", err)
		return
	}
	sent := 0
	for i, member := range members {
		// The first member is the owner, who knows the list as "mine".
		view := realID
		if i == 0 {
			view = model.DefaultListID
		}
		sent += h.hub.SendToUser(member, websocket.ListUpdated(view))
	}
	h.logger.Debug("list change sent", "list_id", realID, "members", len(members), "clients", sent)
}

func (h *ListHandler) fail(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
