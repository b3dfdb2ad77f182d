package mutation

import (
	"time"

	"github.com/dukerupert/list42/internal/model"
)

type Kind int

const (
	KindAdd Kind = iota
	KindUpdate
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Intent is a local change to a list: the item appended, replaced by id or
// removed by id.
type Intent struct {
	Kind Kind
	Item model.GroceryItem
}

// Apply returns list with the intent applied. The input is not modified.
// Added and updated items are stamped with now; an update or delete for an
// id the list does not hold leaves the list unchanged.
func Apply(list *model.GroceryList, in Intent, now time.Time) *model.GroceryList {
	out := list.Clone()
	if out == nil {
		return nil
	}
	switch in.Kind {
	case KindAdd:
		item := in.Item.Clone()
		item.UpdatedAt = &now
		out.Items = append(out.Items, item)
	case KindUpdate:
		if i := out.Find(in.Item.ID); i >= 0 {
			item := in.Item.Clone()
			item.UpdatedAt = &now
			out.Items[i] = item
		}
	case KindDelete:
		if i := out.Find(in.Item.ID); i >= 0 {
			out.Items = append(out.Items[:i], out.Items[i+1:]...)
		}
	}
	return out
}

// Changes lists the fields an update sets. Nil fields are left alone.
type Changes struct {
	Name      *string
	Completed *bool
}

// SetName is shorthand for a name-only change.
func SetName(name string) Changes { return Changes{Name: &name} }

// SetCompleted is shorthand for a completed-only change.
func SetCompleted(done bool) Changes { return Changes{Completed: &done} }

// on returns item with the changes applied and whether any field differs.
func (c Changes) on(item model.GroceryItem) (model.GroceryItem, bool) {
	changed := false
	if c.Name != nil && *c.Name != item.Name {
		item.Name = *c.Name
		changed = true
	}
	if c.Completed != nil && *c.Completed != item.Completed {
		item.Completed = *c.Completed
		changed = true
	}
	return item, changed
}
