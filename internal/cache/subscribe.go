package cache

const subscriberBufferSize = 16

type EventKind string

const (
	EventLoading     EventKind = "loading"
	EventFetched     EventKind = "fetched"
	EventFailed      EventKind = "failed"
	EventSuperseded  EventKind = "superseded"
	EventPatched     EventKind = "patched"
	EventCommitted   EventKind = "committed"
	EventRolledBack  EventKind = "rolled_back"
	EventInvalidated EventKind = "invalidated"
)

// Event tells subscribers that a cached value changed. ListID is empty for
// list index events.
type Event struct {
	ListID string
	Kind   EventKind
}

// Subscription receives change events until it is cancelled or the store
// is closed.
type Subscription struct {
	store  *Store
	events chan Event
}

// Events returns the channel of change events. It is closed by Unsubscribe
// and Close.
func (sub *Subscription) Events() <-chan Event {
	return sub.events
}

// Unsubscribe stops delivery and closes the events channel. Calling it more
// than once is safe.
func (sub *Subscription) Unsubscribe() {
	sub.store.subMu.Lock()
	if _, ok := sub.store.subs[sub]; ok {
		delete(sub.store.subs, sub)
		close(sub.events)
	}
	sub.store.subMu.Unlock()
}

// Subscribe registers a new subscriber.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{store: s, events: make(chan Event, subscriberBufferSize)}
	s.subMu.Lock()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		close(sub.events)
	} else {
		s.subs[sub] = struct{}{}
	}
	s.subMu.Unlock()
	return sub
}

// SubscriberCount returns the number of active subscribers.
func (s *Store) SubscriberCount() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

// notify delivers ev to every subscriber without blocking. A subscriber whose
// buffer is full misses the event; it still sees the latest value on its
// next read.
func (s *Store) notify(ev Event) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for sub := range s.subs {
		select {
		case sub.events <- ev:
		default:
			s.logger.Debug("subscriber buffer full, dropping event", "list_id", ev.ListID, "kind", string(ev.Kind))
		}
	}
}
