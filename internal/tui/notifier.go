package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dukerupert/list42/internal/toast"
)

const toastBuffer = 8

// Notifier queues toasts for the program. Show never blocks; when the
// queue is full the toast is dropped.
type Notifier struct {
	ch chan toast.Notification
}

var _ toast.Notifier = (*Notifier)(nil)

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan toast.Notification, toastBuffer)}
}

func (n *Notifier) Show(key toast.Key, sev toast.Severity) {
	select {
	case n.ch <- toast.Notification{Key: key, Severity: sev}:
	default:
	}
}

type toastMsg toast.Notification

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-n.ch)
	}
}
