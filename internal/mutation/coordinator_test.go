package mutation

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/listtest"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/toast"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	remote *listtest.Remote
	cache  *cache.Store
	toasts *toast.Recorder
	coord  *Coordinator
}

func newHarness(t *testing.T, items ...model.GroceryItem) *harness {
	t.Helper()
	remote := listtest.NewRemote()
	remote.Put("mine", &model.GroceryList{ID: "mine", Items: items})

	store := cache.New(remote, slog.Default())
	t.Cleanup(store.Close)
	_, err := store.Load(context.Background(), "mine")
	require.NoError(t, err)

	toasts := &toast.Recorder{}
	coord := NewCoordinator(store, remote, toasts, slog.Default(), WithClock(func() time.Time { return fixedNow }))
	return &harness{remote: remote, cache: store, toasts: toasts, coord: coord}
}

func (h *harness) items() []model.GroceryItem {
	return h.cache.Peek("mine").List.Items
}

func TestUpdateFailureRollsBack(t *testing.T) {
	a := model.GroceryItem{ID: "a", Name: "Milk"}
	h := newHarness(t, a)
	before := h.cache.Peek("mine").List
	h.remote.Fail("update", errors.New("boom"))

	op := h.coord.UpdateItem("mine", "a", SetCompleted(true))
	assert.True(t, h.items()[0].Completed, "patch is visible before settle")

	err := op.Settle(context.Background())

	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, KindUpdate, merr.Kind)
	assert.Equal(t, before, h.cache.Peek("mine").List)
	assert.False(t, h.items()[0].Completed)
	assert.Equal(t, 1, h.toasts.Count(toast.UpdateItemError))
	assert.Len(t, h.toasts.All(), 1)
}

func TestNoopUpdateSkipsRemote(t *testing.T) {
	h := newHarness(t, model.GroceryItem{ID: "a", Name: "Milk"})
	before := h.cache.Peek("mine").List

	op := h.coord.UpdateItem("mine", "a", SetCompleted(false))
	require.True(t, op.Noop())
	require.NoError(t, op.Settle(context.Background()))

	op = h.coord.UpdateItem("mine", "a", SetName("Milk"))
	require.True(t, op.Noop())

	assert.Equal(t, 0, h.remote.CallCount("update"))
	assert.Equal(t, before, h.cache.Peek("mine").List, "updatedAt must not move")
}

func TestUpdateUnknownItemIsNoop(t *testing.T) {
	h := newHarness(t)

	op := h.coord.UpdateItem("mine", "ghost", SetCompleted(true))
	assert.True(t, op.Noop())
	op = h.coord.DeleteItem("mine", "ghost")
	assert.True(t, op.Noop())
	assert.Empty(t, h.remote.Calls()[1:], "only the initial load reaches the store")
}

func TestAddCommitsServerResponse(t *testing.T) {
	h := newHarness(t)

	op := h.coord.AddItem("mine", model.GroceryItem{ID: "b", Name: "Bread"})
	optimistic := h.items()
	require.Len(t, optimistic, 1)
	assert.Equal(t, fixedNow, *optimistic[0].UpdatedAt)

	require.NoError(t, op.Settle(context.Background()))

	committed := h.items()
	require.Len(t, committed, 1)
	assert.Equal(t, h.remote.List("mine").Items[0].UpdatedAt, committed[0].UpdatedAt)
	assert.NotEqual(t, fixedNow, *committed[0].UpdatedAt, "server timestamp replaces the guess")
	assert.Nil(t, h.remote.Calls()[1].Item.UpdatedAt, "body carries no client timestamp")
}

func TestAddFailureRollsBackAndNotifies(t *testing.T) {
	h := newHarness(t, model.GroceryItem{ID: "a", Name: "Milk"})
	h.remote.Fail("add", errors.New("offline"))

	err := h.coord.AddItem("mine", model.GroceryItem{ID: "b", Name: "Bread"}).Settle(context.Background())

	require.Error(t, err)
	assert.Len(t, h.items(), 1)
	assert.Equal(t, 1, h.toasts.Count(toast.AddItemError))
}

func TestDeleteFailureRollsBack(t *testing.T) {
	h := newHarness(t, model.GroceryItem{ID: "a", Name: "Milk"})
	h.remote.Fail("delete", errors.New("offline"))

	op := h.coord.DeleteItem("mine", "a")
	assert.Empty(t, h.items())

	require.Error(t, op.Settle(context.Background()))
	assert.Len(t, h.items(), 1)
	assert.Equal(t, 1, h.toasts.Count(toast.DeleteItemError))
}

func TestSettleRunsOnce(t *testing.T) {
	h := newHarness(t, model.GroceryItem{ID: "a", Name: "Milk"})
	h.remote.Fail("update", errors.New("boom"))

	op := h.coord.UpdateItem("mine", "a", SetName("Oat milk"))
	err1 := op.Settle(context.Background())
	err2 := op.Settle(context.Background())

	assert.Same(t, err1, err2)
	assert.Equal(t, 1, h.remote.CallCount("update"))
	assert.Equal(t, 1, h.toasts.Count(toast.UpdateItemError))
}

func TestOverlappingMutationsInAnyResponseOrder(t *testing.T) {
	for _, tt := range []struct {
		name  string
		order []int
	}{
		{"delete answers first", []int{0, 1}},
		{"add answers first", []int{1, 0}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, model.GroceryItem{ID: "a", Name: "Milk"})
			h.remote.Hold()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			del := h.coord.DeleteItem("mine", "a")
			add := h.coord.AddItem("mine", model.GroceryItem{ID: "b", Name: "Bread"})

			visible := h.items()
			require.Len(t, visible, 1)
			assert.Equal(t, "b", visible[0].ID, "patches apply in call order")

			errs := make(chan error, 2)
			go func() { errs <- del.Settle(ctx) }()
			go func() { errs <- add.Settle(ctx) }()

			held := make([]*listtest.Pending, 0, 2)
			for len(held) < 2 {
				p, err := h.remote.Next(ctx)
				require.NoError(t, err)
				held = append(held, p)
			}
			// Held calls arrive in goroutine order; index them by method.
			byMethod := map[string]*listtest.Pending{}
			for _, p := range held {
				byMethod[p.Call.Method] = p
			}
			methods := []string{"delete", "add"}
			for _, i := range tt.order {
				byMethod[methods[i]].Release()
				require.NoError(t, <-errs)
			}

			final := h.items()
			require.Len(t, final, 1)
			assert.Equal(t, "b", final[0].ID)
		})
	}
}

func TestApplyIsPure(t *testing.T) {
	in := &model.GroceryList{ID: "mine", Items: []model.GroceryItem{{ID: "a", Name: "Milk"}, {ID: "b", Name: "Bread"}}}

	added := Apply(in, Intent{Kind: KindAdd, Item: model.GroceryItem{ID: "c", Name: "Eggs"}}, fixedNow)
	updated := Apply(in, Intent{Kind: KindUpdate, Item: model.GroceryItem{ID: "a", Name: "Milk", Completed: true}}, fixedNow)
	deleted := Apply(in, Intent{Kind: KindDelete, Item: model.GroceryItem{ID: "a"}}, fixedNow)
	missing := Apply(in, Intent{Kind: KindUpdate, Item: model.GroceryItem{ID: "zz"}}, fixedNow)

	assert.Len(t, in.Items, 2)
	assert.False(t, in.Items[0].Completed)
	assert.Nil(t, in.Items[0].UpdatedAt)

	assert.Len(t, added.Items, 3)
	assert.Equal(t, fixedNow, *added.Items[2].UpdatedAt)
	assert.True(t, updated.Items[0].Completed)
	assert.Equal(t, []model.GroceryItem{{ID: "b", Name: "Bread"}}, deleted.Items)
	assert.Equal(t, in, missing)
	assert.Nil(t, Apply(nil, Intent{Kind: KindAdd}, fixedNow))
}

func TestErrorKeys(t *testing.T) {
	assert.Equal(t, toast.AddItemError, (&Error{Kind: KindAdd}).Key())
	assert.Equal(t, toast.UpdateItemError, (&Error{Kind: KindUpdate}).Key())
	assert.Equal(t, toast.DeleteItemError, (&Error{Kind: KindDelete}).Key())

	cause := errors.New("cause")
	err := error(&Error{Kind: KindAdd, Err: cause})
	assert.ErrorIs(t, err, cause)
}
