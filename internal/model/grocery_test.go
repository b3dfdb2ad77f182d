package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneIsDeep(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	orig := &GroceryList{
		ID:    "mine",
		Items: []GroceryItem{{ID: "a", Name: "Milk", UpdatedAt: &ts}},
	}

	c := orig.Clone()
	c.Items[0].Name = "Eggs"
	*c.Items[0].UpdatedAt = ts.Add(time.Hour)
	c.Items = append(c.Items, GroceryItem{ID: "b"})

	require.Len(t, orig.Items, 1)
	assert.Equal(t, "Milk", orig.Items[0].Name)
	assert.True(t, orig.Items[0].UpdatedAt.Equal(ts), "updatedAt changed through clone: %v", orig.Items[0].UpdatedAt)
}

func TestCloneNil(t *testing.T) {
	var l *GroceryList
	assert.Nil(t, l.Clone())
	assert.Equal(t, -1, l.Find("a"))
}

func TestFindAndItem(t *testing.T) {
	l := &GroceryList{Items: []GroceryItem{{ID: "a", Name: "Milk"}, {ID: "b", Name: "Bread"}}}

	assert.Equal(t, 1, l.Find("b"))
	item, ok := l.Item("a")
	require.True(t, ok)
	assert.Equal(t, "Milk", item.Name)
	_, ok = l.Item("zzz")
	assert.False(t, ok)
}
