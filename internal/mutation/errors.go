package mutation

import (
	"fmt"

	"github.com/dukerupert/list42/internal/toast"
)

// Error reports a remote failure after the optimistic patch was rolled back.
type Error struct {
	Kind   Kind
	ListID string
	ItemID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s item %s in list %s: %v", e.Kind, e.ItemID, e.ListID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Key returns the notification key shown for this failure.
func (e *Error) Key() toast.Key {
	return keyFor(e.Kind)
}

func keyFor(k Kind) toast.Key {
	switch k {
	case KindAdd:
		return toast.AddItemError
	case KindDelete:
		return toast.DeleteItemError
	default:
		return toast.UpdateItemError
	}
}
