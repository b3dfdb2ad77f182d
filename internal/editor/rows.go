package editor

import (
	"sort"
	"strings"

	"github.com/dukerupert/list42/internal/model"
)

// Row is one line of the rendered list: a DraftRow or an ItemRow.
type Row interface {
	row()
}

// DraftRow is a new item that has not been saved yet.
type DraftRow struct {
	Draft Draft
}

// ItemRow is a persisted item. Editing is set while the item is being
// renamed, with Draft holding the working name.
type ItemRow struct {
	Item    model.GroceryItem
	Editing bool
	Draft   string
}

func (DraftRow) row() {}
func (ItemRow) row()  {}

// Sorted returns the items ordered for display: items never stamped by the
// store first in their original order, then most recently updated first.
// Equal timestamps keep their original order.
func Sorted(items []model.GroceryItem) []model.GroceryItem {
	out := make([]model.GroceryItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].UpdatedAt, out[j].UpdatedAt
		switch {
		case a == nil:
			return b != nil
		case b == nil:
			return false
		default:
			return a.After(*b)
		}
	})
	return out
}

// Rows lays out list with the editor's draft. A new-item draft is always
// the first row; a rename keeps the edited item in its sorted place. While
// Committing the draft is left out, since the cached list already carries
// the optimistic change.
func (e *Editor) Rows(list *model.GroceryList) []Row {
	e.mu.Lock()
	draft, open := e.draft, e.state == Drafting
	e.mu.Unlock()

	var items []model.GroceryItem
	if list != nil {
		items = Sorted(list.Items)
	}
	rows := make([]Row, 0, len(items)+1)
	if open && draft.IsNew() {
		rows = append(rows, DraftRow{Draft: draft})
	}
	for _, it := range items {
		r := ItemRow{Item: it}
		if open && draft.Target == it.ID {
			r.Editing = true
			r.Draft = draft.Name
		}
		rows = append(rows, r)
	}
	return rows
}

// Suggestions returns the distinct non-empty item names in the current list
// that start with prefix, ignoring case, in the order they first appear.
func (e *Editor) Suggestions(prefix string) []string {
	list := e.cache.Peek(e.ListID()).List
	if list == nil {
		return nil
	}
	return Suggest(list.Items, prefix)
}

// Suggest is Suggestions over a plain item slice.
func Suggest(items []model.GroceryItem, prefix string) []string {
	want := strings.ToLower(strings.TrimSpace(prefix))
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if strings.HasPrefix(strings.ToLower(name), want) {
			out = append(out, name)
		}
	}
	return out
}
