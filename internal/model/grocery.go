package model

import "time"

// DefaultListID addresses the signed-in user's own list.
const DefaultListID = "mine"

type GroceryItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Completed bool       `json:"completed"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type GroceryList struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Items     []GroceryItem `json:"items"`
	CreatedAt *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt *time.Time    `json:"updatedAt,omitempty"`
}

// ListSummary is one entry of the list index.
type ListSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Clone returns a deep copy of the list. A nil list clones to nil.
func (l *GroceryList) Clone() *GroceryList {
	if l == nil {
		return nil
	}
	c := *l
	c.CreatedAt = cloneTime(l.CreatedAt)
	c.UpdatedAt = cloneTime(l.UpdatedAt)
	if l.Items != nil {
		c.Items = make([]GroceryItem, len(l.Items))
		for i, item := range l.Items {
			c.Items[i] = item.Clone()
		}
	}
	return &c
}

// Find returns the index of the item with the given id, or -1.
func (l *GroceryList) Find(id string) int {
	if l == nil {
		return -1
	}
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Item returns a copy of the item with the given id.
func (l *GroceryList) Item(id string) (GroceryItem, bool) {
	i := l.Find(id)
	if i < 0 {
		return GroceryItem{}, false
	}
	return l.Items[i].Clone(), true
}

func (i GroceryItem) Clone() GroceryItem {
	i.UpdatedAt = cloneTime(i.UpdatedAt)
	return i
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
