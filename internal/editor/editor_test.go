package editor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/listtest"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/mutation"
	"github.com/dukerupert/list42/internal/toast"
)

type fixture struct {
	remote *listtest.Remote
	cache  *cache.Store
	toasts *toast.Recorder
	editor *Editor
}

func newFixture(t *testing.T, items ...model.GroceryItem) *fixture {
	t.Helper()
	remote := listtest.NewRemote()
	remote.Put("mine", &model.GroceryList{ID: "mine", Items: items})

	store := cache.New(remote, slog.Default())
	t.Cleanup(store.Close)
	_, err := store.Load(context.Background(), "mine")
	require.NoError(t, err)

	toasts := &toast.Recorder{}
	coord := mutation.NewCoordinator(store, remote, toasts, slog.Default())
	return &fixture{
		remote: remote,
		cache:  store,
		toasts: toasts,
		editor: New("mine", store, coord, slog.Default()),
	}
}

func (f *fixture) list() *model.GroceryList {
	return f.cache.Peek("mine").List
}

func (f *fixture) mutations() int {
	return f.remote.CallCount("add") + f.remote.CallCount("update") + f.remote.CallCount("delete")
}

func stamp(minute int) *time.Time {
	ts := time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)
	return &ts
}

func TestDraftRowComesFirst(t *testing.T) {
	f := newFixture(t,
		model.GroceryItem{ID: "a", Name: "Apples", UpdatedAt: stamp(1)},
		model.GroceryItem{ID: "b", Name: "Bread", UpdatedAt: stamp(5)},
	)

	require.Nil(t, f.editor.BeginAdd())
	assert.Equal(t, Drafting, f.editor.State())

	rows := f.editor.Rows(f.list())
	require.Len(t, rows, 3)
	assert.IsType(t, DraftRow{}, rows[0])
	assert.Equal(t, "b", rows[1].(ItemRow).Item.ID)
	assert.Equal(t, "a", rows[2].(ItemRow).Item.ID)
}

func TestCommitEmptyDraftDiscards(t *testing.T) {
	f := newFixture(t)

	f.editor.BeginAdd()
	f.editor.Rename("   ")
	outcome, p := f.editor.Commit()

	assert.Equal(t, OutcomeDiscarded, outcome)
	assert.Nil(t, p)
	assert.Equal(t, Idle, f.editor.State())
	assert.Equal(t, 0, f.mutations())
}

func TestCommitSavesWithFreshID(t *testing.T) {
	f := newFixture(t)

	f.editor.BeginAdd()
	f.editor.Rename("  Milk ")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeSaved, outcome)
	assert.Equal(t, Committing, f.editor.State())

	require.NoError(t, p.Settle(context.Background()))
	assert.Equal(t, Idle, f.editor.State())

	calls := f.remote.Calls()
	require.Equal(t, 1, f.mutations())
	added := calls[len(calls)-1]
	assert.Equal(t, "add", added.Method)
	assert.Equal(t, "Milk", added.Item.Name)
	_, err := uuid.Parse(added.Item.ID)
	assert.NoError(t, err, "new items get a real uuid")

	require.Len(t, f.list().Items, 1)
	assert.Equal(t, added.Item.ID, f.list().Items[0].ID)
}

func TestCommitMergesIntoCompletedItem(t *testing.T) {
	f := newFixture(t,
		model.GroceryItem{ID: "item1", Name: "Leite", Completed: true},
		model.GroceryItem{ID: "item2", Name: "Pão", Completed: true},
		model.GroceryItem{ID: "item3", Name: "Manteiga"},
	)

	f.editor.BeginAdd()
	f.editor.Rename("leite ")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeMerged, outcome)
	require.NoError(t, p.Settle(context.Background()))

	assert.Equal(t, 0, f.remote.CallCount("add"))
	assert.Equal(t, 1, f.remote.CallCount("update"))
	item, ok := f.list().Item("item1")
	require.True(t, ok)
	assert.False(t, item.Completed)
	assert.Len(t, f.list().Items, 3)
}

func TestPendingItemWithSameNameIsNotMerged(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Milk"})

	f.editor.BeginAdd()
	f.editor.Rename("Milk")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeSaved, outcome)
	require.NoError(t, p.Settle(context.Background()))
	assert.Len(t, f.list().Items, 2)
}

func TestCommitTwiceSendsOnce(t *testing.T) {
	f := newFixture(t)
	f.remote.Hold()

	f.editor.BeginAdd()
	f.editor.Rename("Eggs")
	first, p := f.editor.Commit()
	second, q := f.editor.Commit()

	assert.Equal(t, OutcomeSaved, first)
	assert.Equal(t, OutcomeIgnored, second)
	assert.Nil(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Settle(ctx) }()
	held, err := f.remote.Next(ctx)
	require.NoError(t, err)
	held.Release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, f.remote.CallCount("add"))
	assert.Len(t, f.list().Items, 1)
}

func TestFailedCommitClearsDraft(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "m", Name: "Milk"})
	before := f.list()
	f.remote.Fail("add", errors.New("offline"))

	f.editor.BeginAdd()
	f.editor.Rename("Cheese")
	_, p := f.editor.Commit()
	require.Error(t, p.Settle(context.Background()))

	assert.Equal(t, Idle, f.editor.State())
	_, open := f.editor.Draft()
	assert.False(t, open)
	assert.Equal(t, before, f.list(), "cache rolled back")
	assert.Equal(t, 1, f.toasts.Count(toast.AddItemError))
}

func TestFailedMergeClearsDraft(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "m", Name: "Milk", Completed: true})
	f.remote.Fail("update", errors.New("offline"))

	f.editor.BeginAdd()
	f.editor.Rename("milk")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeMerged, outcome)
	require.Error(t, p.Settle(context.Background()))

	assert.Equal(t, Idle, f.editor.State())
	item, ok := f.list().Item("m")
	require.True(t, ok)
	assert.True(t, item.Completed, "merge rolled back")
	assert.Equal(t, 1, f.toasts.Count(toast.UpdateItemError))
}

func TestBeginAddPolicy(t *testing.T) {
	f := newFixture(t)

	f.editor.BeginAdd()
	assert.Nil(t, f.editor.BeginAdd(), "empty draft is kept")
	assert.Equal(t, Drafting, f.editor.State())

	f.editor.Rename("Rice")
	p := f.editor.BeginAdd()
	require.NotNil(t, p)
	assert.Equal(t, OutcomeSaved, p.Outcome())

	d, open := f.editor.Draft()
	assert.True(t, open)
	assert.Empty(t, d.Name, "a fresh draft is open right away")

	require.NoError(t, p.Settle(context.Background()))
	assert.Equal(t, Drafting, f.editor.State(), "settling the old draft leaves the new one alone")
	assert.Len(t, f.list().Items, 1)
}

func TestRenameExistingItem(t *testing.T) {
	f := newFixture(t,
		model.GroceryItem{ID: "a", Name: "Apples", UpdatedAt: stamp(1)},
		model.GroceryItem{ID: "b", Name: "Bread", UpdatedAt: stamp(5)},
	)

	require.Nil(t, f.editor.BeginEdit("a"))
	rows := f.editor.Rows(f.list())
	require.Len(t, rows, 2)
	edited := rows[1].(ItemRow)
	assert.True(t, edited.Editing)
	assert.Equal(t, "Apples", edited.Draft)

	f.editor.Rename("Green apples")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeRenamed, outcome)
	require.NoError(t, p.Settle(context.Background()))

	item, _ := f.list().Item("a")
	assert.Equal(t, "Green apples", item.Name)
	assert.Equal(t, Idle, f.editor.State())
}

func TestRenameUnchangedMakesNoCall(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Apples"})

	f.editor.BeginEdit("a")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeRenamed, outcome)
	require.NoError(t, p.Settle(context.Background()))
	assert.Equal(t, 0, f.mutations())
}

func TestRenameToEmptyDeletes(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Apples"})

	f.editor.BeginEdit("a")
	f.editor.Rename("")
	outcome, p := f.editor.Commit()
	require.Equal(t, OutcomeDeleted, outcome)
	require.NoError(t, p.Settle(context.Background()))
	assert.Empty(t, f.list().Items)
}

func TestBeginEditUnknownItem(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.editor.BeginEdit("ghost"))
	assert.Equal(t, Idle, f.editor.State())
}

func TestSelectSuggestionMerges(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Leite", Completed: true})

	f.editor.BeginAdd()
	outcome, p := f.editor.Select("Leite")
	require.Equal(t, OutcomeMerged, outcome)
	require.NoError(t, p.Settle(context.Background()))

	item, _ := f.list().Item("a")
	assert.False(t, item.Completed)
	assert.Equal(t, 0, f.remote.CallCount("add"))
}

func TestSelectOtherNameOnlyRenames(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Leite"})

	f.editor.BeginAdd()
	outcome, p := f.editor.Select("Leite")
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Nil(t, p)
	d, _ := f.editor.Draft()
	assert.Equal(t, "Leite", d.Name)
	assert.Equal(t, 0, f.mutations())
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)

	f.editor.BeginAdd()
	f.editor.Rename("Tea")
	f.editor.Discard()

	assert.Equal(t, Idle, f.editor.State())
	assert.False(t, f.editor.Rename("x"))
	assert.Equal(t, 0, f.mutations())
}

func TestToggleAndDelete(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Apples"})

	require.NoError(t, f.editor.Toggle("a").Settle(context.Background()))
	item, _ := f.list().Item("a")
	assert.True(t, item.Completed)

	f.editor.BeginEdit("a")
	require.NoError(t, f.editor.Delete("a").Settle(context.Background()))
	assert.Equal(t, Idle, f.editor.State())
	assert.Empty(t, f.list().Items)

	assert.True(t, f.editor.Toggle("a").Noop())
}

func TestSetListDropsDraft(t *testing.T) {
	f := newFixture(t)

	f.editor.BeginAdd()
	f.editor.Rename("Tea")
	f.editor.SetList("other")

	assert.Equal(t, Idle, f.editor.State())
	assert.Equal(t, "other", f.editor.ListID())
}

func TestRowsWhileCommittingShowOptimisticItem(t *testing.T) {
	f := newFixture(t, model.GroceryItem{ID: "a", Name: "Apples", UpdatedAt: stamp(1)})

	f.editor.BeginAdd()
	f.editor.Rename("Milk")
	_, p := f.editor.Commit()
	require.NotNil(t, p)

	rows := f.editor.Rows(f.list())
	require.Len(t, rows, 2, "no draft row next to the optimistic item")
	assert.Equal(t, "Milk", rows[0].(ItemRow).Item.Name)
	assert.False(t, rows[0].(ItemRow).Editing)

	require.NoError(t, p.Settle(context.Background()))
}
