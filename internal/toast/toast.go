// Package toast delivers short user-facing notifications identified by a
// message key. Delivery is fire-and-forget.
package toast

import (
	"context"
	"log/slog"
	"sync"
)

type Key string

const (
	FetchError       Key = "fetchError"
	AddItemError     Key = "addItemError"
	UpdateItemError  Key = "updateItemError"
	DeleteItemError  Key = "deleteItemError"
	ShareRedeemError Key = "shareRedeemError"
	ShareCodeError   Key = "shareCodeError"
	ShareLinkCopied  Key = "shareLinkCopied"
)

type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

var messages = map[Key]string{
	FetchError:       "Could not load the list",
	AddItemError:     "Could not add the item",
	UpdateItemError:  "Could not update the item",
	DeleteItemError:  "Could not delete the item",
	ShareRedeemError: "Could not open the shared list",
	ShareCodeError:   "Unable to get share code",
	ShareLinkCopied:  "Share link ready",
}

// Message returns the English text for key, or the key itself.
func Message(key Key) string {
	if m, ok := messages[key]; ok {
		return m
	}
	return string(key)
}

// Notifier shows a notification. Implementations must not block.
type Notifier interface {
	Show(key Key, sev Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(key Key, sev Severity)

func (f NotifierFunc) Show(key Key, sev Severity) { f(key, sev) }

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Show(key Key, sev Severity) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch sev {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, Message(key), "key", string(key))
}

// Notification is one recorded Show call.
type Notification struct {
	Key      Key
	Severity Severity
}

// Recorder keeps every notification it is shown.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Show(key Key, sev Severity) {
	r.mu.Lock()
	r.all = append(r.all, Notification{Key: key, Severity: sev})
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Count returns how many notifications with key were shown.
func (r *Recorder) Count(key Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.all {
		if t.Key == key {
			n++
		}
	}
	return n
}
