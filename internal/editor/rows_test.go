package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/list42/internal/model"
)

func ids(items []model.GroceryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSorted(t *testing.T) {
	items := []model.GroceryItem{
		{ID: "old", UpdatedAt: stamp(1)},
		{ID: "unstamped1"},
		{ID: "new", UpdatedAt: stamp(9)},
		{ID: "tieA", UpdatedAt: stamp(5)},
		{ID: "unstamped2"},
		{ID: "tieB", UpdatedAt: stamp(5)},
	}

	got := Sorted(items)

	assert.Equal(t, []string{"unstamped1", "unstamped2", "new", "tieA", "tieB", "old"}, ids(got))
	assert.Equal(t, "old", items[0].ID, "input is left alone")
}

func TestSortedEmpty(t *testing.T) {
	assert.Empty(t, Sorted(nil))
}

func TestSuggest(t *testing.T) {
	items := []model.GroceryItem{
		{ID: "1", Name: "Milk", Completed: true},
		{ID: "2", Name: "Mint"},
		{ID: "3", Name: "  "},
		{ID: "4", Name: "Milk"},
		{ID: "5", Name: "Bread"},
	}

	assert.Equal(t, []string{"Milk", "Mint", "Bread"}, Suggest(items, ""))
	assert.Equal(t, []string{"Milk", "Mint"}, Suggest(items, "mi"))
	assert.Equal(t, []string{"Milk"}, Suggest(items, "MIL"))
	assert.Empty(t, Suggest(items, "x"))
}
