// Package cache holds the last-known server copy of each grocery list and
// lets callers patch it optimistically with an undo token.
//
// Stored values are copy-on-write: every write installs a fresh clone, so a
// previous value kept by an Undo is never mutated afterwards.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/list42/internal/model"
)

type Status int

const (
	StatusAbsent Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Tag groups cache entries for invalidation.
type Tag string

const (
	TagList  Tag = "GroceryList"
	TagLists Tag = "GroceryLists"
)

// Fetcher loads authoritative data from the list store.
type Fetcher interface {
	GetList(ctx context.Context, listID string) (*model.GroceryList, error)
	ListLists(ctx context.Context) ([]model.ListSummary, error)
}

// Entry is a read-only view of one cached list. List may be set while
// Status is StatusLoading or StatusFailed when an older value is still held.
type Entry struct {
	Status Status
	List   *model.GroceryList
	Err    error
	Stale  bool
}

// IndexEntry is a read-only view of the cached list index.
type IndexEntry struct {
	Status Status
	Lists  []model.ListSummary
	Err    error
}

type entry struct {
	list    *model.GroceryList
	err     error
	loading bool
	stale   bool
	version uint64
	// invalidated counts invalidations; a fetch that saw it change refetches.
	invalidated uint64
}

func (e *entry) needsFetch() bool {
	return !e.loading && (e.stale || (e.list == nil && e.err == nil))
}

func (e *entry) view() Entry {
	v := Entry{List: e.list.Clone(), Err: e.err, Stale: e.stale}
	switch {
	case e.loading:
		v.Status = StatusLoading
	case e.err != nil:
		v.Status = StatusFailed
	case e.list != nil:
		v.Status = StatusReady
	default:
		v.Status = StatusAbsent
	}
	return v
}

type index struct {
	lists       []model.ListSummary
	has         bool
	err         error
	loading     bool
	stale       bool
	version     uint64
	invalidated uint64
}

// Store is the client-side list cache. One Store is created per session and
// passed to the components that need it.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	index   index
	closed  bool

	fetcher Fetcher
	group   singleflight.Group
	ctx     context.Context
	cancel  context.CancelFunc

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}

	logger *slog.Logger
}

// New creates a Store backed by fetcher.
func New(fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		entries: make(map[string]*entry),
		fetcher: fetcher,
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[*Subscription]struct{}),
		logger:  logger,
	}
}

// Get returns the cached value for listID and starts a background fetch when
// nothing is cached yet or the entry was invalidated. Failed fetches are not
// retried until the entry is invalidated.
func (s *Store) Get(listID string) Entry {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Entry{Status: StatusAbsent}
	}
	e := s.entryLocked(listID)
	fetch := e.needsFetch()
	if fetch {
		e.loading = true
	}
	v := e.view()
	s.mu.Unlock()

	if fetch {
		s.notify(Event{ListID: listID, Kind: EventLoading})
		s.group.DoChan(listKey(listID), func() (any, error) {
			return s.fetchList(listID)
		})
	}
	return v
}

// Peek returns the cached value without triggering a fetch.
func (s *Store) Peek(listID string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[listID]
	if !ok {
		return Entry{Status: StatusAbsent}
	}
	return e.view()
}

// Load returns the list, fetching it first when it is missing or stale.
func (s *Store) Load(ctx context.Context, listID string) (*model.GroceryList, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	e := s.entryLocked(listID)
	if e.list != nil && !e.stale && !e.loading {
		list := e.list.Clone()
		s.mu.Unlock()
		return list, nil
	}
	if e.err != nil && !e.stale && !e.loading {
		err := e.err
		s.mu.Unlock()
		return nil, err
	}
	e.loading = true
	s.mu.Unlock()

	ch := s.group.DoChan(listKey(listID), func() (any, error) {
		return s.fetchList(listID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// The fetch may have lost to a newer commit; the cache holds the winner.
		if cur := s.Peek(listID); cur.List != nil {
			return cur.List, nil
		}
		return res.Val.(*model.GroceryList).Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchList fetches until no invalidation arrives while a request is in
// flight, so the result installed is never older than the last invalidation.
func (s *Store) fetchList(listID string) (*model.GroceryList, error) {
	for {
		list, again, err := s.fetchListOnce(listID)
		if !again {
			return list, err
		}
		s.logger.Debug("list invalidated during fetch, refetching", "list_id", listID)
	}
}

func (s *Store) fetchListOnce(listID string) (*model.GroceryList, bool, error) {
	s.mu.Lock()
	e := s.entryLocked(listID)
	e.loading = true
	start, inv := e.version, e.invalidated
	s.mu.Unlock()

	list, err := s.fetcher.GetList(s.ctx, listID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, ErrClosed
	}
	e = s.entryLocked(listID)
	if e.invalidated != inv && s.ctx.Err() == nil {
		s.mu.Unlock()
		return nil, true, nil
	}
	e.loading = false
	kind := EventFetched
	switch {
	case e.version != start:
		// A commit or patch landed while fetching; it is newer than this result.
		kind = EventSuperseded
	case err != nil:
		e.err = err
		e.stale = false
		e.version++
		kind = EventFailed
	default:
		e.list = list.Clone()
		e.err = nil
		e.stale = false
		e.version++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("fetch list failed", "list_id", listID, "error", err)
		s.notify(Event{ListID: listID, Kind: kind})
		return nil, false, fmt.Errorf("fetch list %s: %w", listID, err)
	}
	s.notify(Event{ListID: listID, Kind: kind})
	return list, false, nil
}

// Patch applies fn to a writable clone of the cached list and stores the
// clone. The returned Undo restores the previous value exactly once.
// Patching a list that is not cached does nothing.
func (s *Store) Patch(listID string, fn func(*model.GroceryList)) *Undo {
	s.mu.Lock()
	e, ok := s.entries[listID]
	if s.closed || !ok || e.list == nil {
		s.mu.Unlock()
		return &Undo{}
	}
	prev := e.list
	next := prev.Clone()
	fn(next)
	e.list = next
	e.version++
	s.mu.Unlock()

	s.notify(Event{ListID: listID, Kind: EventPatched})
	return &Undo{store: s, listID: listID, prev: prev}
}

// Commit replaces the cached list unconditionally.
func (s *Store) Commit(listID string, list *model.GroceryList) {
	if list == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	e := s.entryLocked(listID)
	e.list = list.Clone()
	e.err = nil
	e.stale = false
	e.version++
	s.mu.Unlock()

	s.notify(Event{ListID: listID, Kind: EventCommitted})
}

func (s *Store) restore(listID string, prev *model.GroceryList) {
	s.mu.Lock()
	e, ok := s.entries[listID]
	if s.closed || !ok {
		s.mu.Unlock()
		return
	}
	e.list = prev
	e.version++
	s.mu.Unlock()

	s.notify(Event{ListID: listID, Kind: EventRolledBack})
}

// Invalidate marks every entry carrying tag as stale. The next Get refetches.
func (s *Store) Invalidate(tag Tag) {
	var ids []string
	s.mu.Lock()
	switch tag {
	case TagList:
		for id, e := range s.entries {
			e.stale = true
			e.invalidated++
			ids = append(ids, id)
		}
	case TagLists:
		s.index.stale = true
		s.index.invalidated++
	}
	s.mu.Unlock()

	if tag == TagLists {
		s.notify(Event{Kind: EventInvalidated})
		return
	}
	for _, id := range ids {
		s.notify(Event{ListID: id, Kind: EventInvalidated})
	}
}

// InvalidateList marks a single list as stale.
func (s *Store) InvalidateList(listID string) {
	s.mu.Lock()
	e, ok := s.entries[listID]
	if ok {
		e.stale = true
		e.invalidated++
	}
	s.mu.Unlock()

	if ok {
		s.notify(Event{ListID: listID, Kind: EventInvalidated})
	}
}

// Close drops every entry, stops background fetches and closes all
// subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.entries = make(map[string]*entry)
	s.index = index{}
	s.mu.Unlock()

	s.cancel()

	s.subMu.Lock()
	for sub := range s.subs {
		delete(s.subs, sub)
		close(sub.events)
	}
	s.subMu.Unlock()
}

func (s *Store) entryLocked(listID string) *entry {
	e, ok := s.entries[listID]
	if !ok {
		e = &entry{}
		s.entries[listID] = e
	}
	return e
}

func listKey(listID string) string {
	return "list:" + listID
}

// Undo restores a list to its value before a Patch.
type Undo struct {
	store  *Store
	listID string
	prev   *model.GroceryList
	once   sync.Once
}

// Undo restores the pre-patch value. Only the first call has an effect; it
// reports whether anything was restored.
func (u *Undo) Undo() bool {
	done := false
	u.once.Do(func() {
		if u.store == nil {
			return
		}
		u.store.restore(u.listID, u.prev)
		done = true
	})
	return done
}
