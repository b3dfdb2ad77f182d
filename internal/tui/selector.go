package tui

import (
	"github.com/dukerupert/list42/internal/model"
)

// ListLabel is how a list is named in the selector and the title bar.
func ListLabel(l model.ListSummary) string {
	switch {
	case l.Name != "":
		return l.Name
	case l.ID == model.DefaultListID:
		return "My list"
	default:
		id := l.ID
		if len(id) > 6 {
			id = id[:6]
		}
		return "Shared list " + id
	}
}

// visibleLists returns the index when a choice is worth offering.
func visibleLists(lists []model.ListSummary) []model.ListSummary {
	if len(lists) <= 1 {
		return nil
	}
	return lists
}

func labelFor(lists []model.ListSummary, listID string) string {
	for _, l := range lists {
		if l.ID == listID {
			return ListLabel(l)
		}
	}
	return ListLabel(model.ListSummary{ID: listID})
}

func contains(lists []model.ListSummary, listID string) bool {
	for _, l := range lists {
		if l.ID == listID {
			return true
		}
	}
	return false
}
