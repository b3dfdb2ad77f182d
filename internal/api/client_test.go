package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/list42/internal/model"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL})
}

func TestGetListSendsSessionCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lists/mine", r.URL.Path)
		cookie, err := r.Cookie(SessionCookieName)
		if assert.NoError(t, err, "missing session cookie") {
			assert.Equal(t, "tok-1", cookie.Value)
		}
		json.NewEncoder(w).Encode(model.GroceryList{
			ID:    "mine",
			Items: []model.GroceryItem{{ID: "first", Name: "First Item"}},
		})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, SessionToken: "tok-1"})
	list, err := c.GetList(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "First Item", list.Items[0].Name)
}

func TestAddItemPostsBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/lists/abc/items", r.URL.Path)
		var item model.GroceryItem
		json.NewDecoder(r.Body).Decode(&item)
		json.NewEncoder(w).Encode(model.GroceryList{ID: "abc", Items: []model.GroceryItem{item}})
	})

	list, err := c.AddItem(context.Background(), "abc", model.GroceryItem{ID: "x1", Name: "Milk"})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "x1", list.Items[0].ID)
	assert.Equal(t, "Milk", list.Items[0].Name)
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var got []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path)
		json.NewEncoder(w).Encode(model.GroceryList{ID: "mine", Items: []model.GroceryItem{}})
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL + "/"})
	ctx := context.Background()
	_, err := c.UpdateItem(ctx, "mine", model.GroceryItem{ID: "i1", Completed: true})
	require.NoError(t, err)
	_, err = c.DeleteItem(ctx, "mine", "i1")
	require.NoError(t, err)

	assert.Equal(t, []string{"PUT /lists/mine/items/i1", "DELETE /lists/mine/items/i1"}, got)
}

func TestRedeemShareCodeQuery(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "code123", r.URL.Query().Get("shared"))
		json.NewEncoder(w).Encode(model.GroceryList{ID: "shared-1"})
	})

	list, err := c.RedeemShareCode(context.Background(), "code123")
	require.NoError(t, err)
	assert.Equal(t, "shared-1", list.ID)
}

func TestUnauthorized(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"not signed in"}`))
	})

	_, err := c.GetList(context.Background(), "mine")
	require.ErrorIs(t, err, ErrUnauthorized)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "not signed in", se.Message)
}

func TestSessionNullIsUnauthorized(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})

	_, err := c.Session(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignInStoresToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "alice@example.com", req.Email)
		assert.Equal(t, "hunter2", req.Password)
		json.NewEncoder(w).Encode(model.SessionInfo{
			User:    model.User{ID: "u1"},
			Session: model.Session{Token: "fresh"},
		})
	})

	_, err := c.SignIn(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "fresh", c.SessionToken())
}

func TestGetShareCode(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lists/mine/share-code", r.URL.Path)
		json.NewEncoder(w).Encode("abc123")
	})

	code, err := c.GetShareCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", code)
}
