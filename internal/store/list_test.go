package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/list42/internal/model"
)

func setupListTestDB(t *testing.T) (*ListStore, *model.User, *model.User) {
	t.Helper()
	db := openTestDB(t)
	us := NewUserStore(db)
	alice := createUser(t, us, "alice@example.com", "Alice", "pw")
	bob := createUser(t, us, "bob@example.com", "Bob", "pw")
	return NewListStore(db), alice, bob
}

func TestOwnListCreatedOnDemand(t *testing.T) {
	ls, alice, _ := setupListTestDB(t)

	list, err := ls.Get(alice.ID, "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", list.ID)
	assert.Empty(t, list.Items)
	assert.NotNil(t, list.CreatedAt)
	assert.NotNil(t, list.UpdatedAt)

	first, err := ls.EnsureOwn(alice.ID)
	require.NoError(t, err)
	second, err := ls.EnsureOwn(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "own list must not change")
}

func TestItemCRUD(t *testing.T) {
	ls, alice, _ := setupListTestDB(t)

	// Create
	list, err := ls.AddItem(alice.ID, "mine", model.GroceryItem{ID: "i1", Name: " Milk "})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	milk := list.Items[0]
	assert.Equal(t, "Milk", milk.Name)
	require.NotNil(t, milk.UpdatedAt, "expected server timestamp")

	list, err = ls.AddItem(alice.ID, "mine", model.GroceryItem{Name: "Bread"})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "Bread", list.Items[1].Name)
	assert.NotEmpty(t, list.Items[1].ID, "expected generated id")

	// Update
	list, err = ls.UpdateItem(alice.ID, "mine", model.GroceryItem{ID: "i1", Name: "Oat milk", Completed: true})
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", list.Items[0].Name)
	assert.True(t, list.Items[0].Completed)
	assert.False(t, list.Items[0].UpdatedAt.Before(*milk.UpdatedAt), "update moved updatedAt backwards")

	// Delete
	list, err = ls.DeleteItem(alice.ID, "mine", "i1")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Bread", list.Items[0].Name)

	// Deleting again is not an error.
	_, err = ls.DeleteItem(alice.ID, "mine", "i1")
	assert.NoError(t, err)
}

func TestAddItemRetrySameID(t *testing.T) {
	ls, alice, _ := setupListTestDB(t)

	_, err := ls.AddItem(alice.ID, "mine", model.GroceryItem{ID: "i1", Name: "Milk"})
	require.NoError(t, err)
	list, err := ls.AddItem(alice.ID, "mine", model.GroceryItem{ID: "i1", Name: "Milk"})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestItemValidation(t *testing.T) {
	ls, alice, _ := setupListTestDB(t)

	_, err := ls.AddItem(alice.ID, "mine", model.GroceryItem{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidItem)
	_, err = ls.UpdateItem(alice.ID, "mine", model.GroceryItem{ID: "ghost", Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForeignListNotVisible(t *testing.T) {
	ls, alice, bob := setupListTestDB(t)

	aliceList, err := ls.EnsureOwn(alice.ID)
	require.NoError(t, err)

	_, err = ls.Get(bob.ID, aliceList)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ls.AddItem(bob.ID, aliceList, model.GroceryItem{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShareAndRedeem(t *testing.T) {
	ls, alice, bob := setupListTestDB(t)

	_, err := ls.AddItem(alice.ID, "mine", model.GroceryItem{ID: "i1", Name: "Milk"})
	require.NoError(t, err)

	code, err := ls.ShareCode(alice.ID)
	require.NoError(t, err)
	assert.Len(t, code, 12, "12 hex chars")
	again, err := ls.ShareCode(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again, "share code is stable")

	list, err := ls.Redeem(bob.ID, code)
	require.NoError(t, err)
	aliceList, err := ls.EnsureOwn(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, aliceList, list.ID)
	assert.Len(t, list.Items, 1)

	// Bob can now write to Alice's list.
	_, err = ls.AddItem(bob.ID, aliceList, model.GroceryItem{Name: "Bread"})
	require.NoError(t, err)
	mine, err := ls.Get(alice.ID, "mine")
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	lists, err := ls.Lists(bob.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "mine", lists[0].ID)
	assert.Equal(t, aliceList, lists[1].ID)

	members, err := ls.Members(aliceList)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, members)

	// Redeeming twice keeps a single membership.
	_, err = ls.Redeem(bob.ID, code)
	require.NoError(t, err)
	lists, err = ls.Lists(bob.ID)
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestRedeemOwnCode(t *testing.T) {
	ls, alice, _ := setupListTestDB(t)

	code, err := ls.ShareCode(alice.ID)
	require.NoError(t, err)
	list, err := ls.Redeem(alice.ID, code)
	require.NoError(t, err)
	assert.Equal(t, "mine", list.ID)
}

func TestRedeemUnknownCode(t *testing.T) {
	ls, _, bob := setupListTestDB(t)

	_, err := ls.Redeem(bob.ID, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
