// Package listtest provides an in-memory list store for tests of the client
// core. Calls can be held open and released one by one to force any
// response ordering.
package listtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dukerupert/list42/internal/model"
)

var ErrNotFound = errors.New("list not found")

// Call records one request made to the Remote.
type Call struct {
	Method string
	ListID string
	Item   model.GroceryItem
	Code   string
}

// Pending is a held call waiting for Release.
type Pending struct {
	Call    Call
	release chan struct{}
	once    sync.Once
}

// Release lets the held call proceed.
func (p *Pending) Release() {
	p.once.Do(func() { close(p.release) })
}

// Remote is a fake list store. The zero value is not usable; call NewRemote.
type Remote struct {
	mu       sync.Mutex
	lists    map[string]*model.GroceryList
	shares   map[string]string
	summary  []model.ListSummary
	calls    []Call
	failures map[string]error
	hold     bool
	pending  chan *Pending
	clock    time.Time
}

func NewRemote() *Remote {
	return &Remote{
		lists:    make(map[string]*model.GroceryList),
		shares:   make(map[string]string),
		failures: make(map[string]error),
		pending:  make(chan *Pending, 64),
		clock:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Put stores a list under id.
func (r *Remote) Put(id string, list *model.GroceryList) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[id] = list.Clone()
	r.summary = append(r.summary, model.ListSummary{ID: id, Name: list.Name})
}

// List returns a copy of the stored list.
func (r *Remote) List(id string) *model.GroceryList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[id].Clone()
}

// AddShare makes code redeemable for the list stored under id.
func (r *Remote) AddShare(code, id string) {
	r.mu.Lock()
	r.shares[code] = id
	r.mu.Unlock()
}

// Fail makes every later call to method ("get", "add", "update", "delete",
// "redeem", "share-code", "lists") return err. A nil err clears it.
func (r *Remote) Fail(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, method)
		return
	}
	r.failures[method] = err
}

// Hold makes later calls block until released through Pending.
func (r *Remote) Hold() {
	r.mu.Lock()
	r.hold = true
	r.mu.Unlock()
}

// Pending delivers held calls in the order they arrived.
func (r *Remote) Pending() <-chan *Pending {
	return r.pending
}

// Next waits for the next held call.
func (r *Remote) Next(ctx context.Context) (*Pending, error) {
	select {
	case p := <-r.pending:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Calls returns every call made so far.
func (r *Remote) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns how many calls used method.
func (r *Remote) CallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (r *Remote) GetList(ctx context.Context, listID string) (*model.GroceryList, error) {
	return r.handle(ctx, Call{Method: "get", ListID: listID}, nil)
}

func (r *Remote) AddItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	return r.handle(ctx, Call{Method: "add", ListID: listID, Item: item}, func(l *model.GroceryList, now time.Time) {
		item.UpdatedAt = &now
		l.Items = append(l.Items, item)
	})
}

func (r *Remote) UpdateItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error) {
	return r.handle(ctx, Call{Method: "update", ListID: listID, Item: item}, func(l *model.GroceryList, now time.Time) {
		if i := l.Find(item.ID); i >= 0 {
			item.UpdatedAt = &now
			l.Items[i] = item
		}
	})
}

func (r *Remote) DeleteItem(ctx context.Context, listID, itemID string) (*model.GroceryList, error) {
	return r.handle(ctx, Call{Method: "delete", ListID: listID, Item: model.GroceryItem{ID: itemID}}, func(l *model.GroceryList, _ time.Time) {
		if i := l.Find(itemID); i >= 0 {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
		}
	})
}

func (r *Remote) ListLists(ctx context.Context) ([]model.ListSummary, error) {
	if err := r.enter(ctx, Call{Method: "lists"}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ListSummary, len(r.summary))
	copy(out, r.summary)
	return out, nil
}

func (r *Remote) RedeemShareCode(ctx context.Context, code string) (*model.GroceryList, error) {
	if err := r.enter(ctx, Call{Method: "redeem", Code: code}); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.shares[code]
	if !ok {
		return nil, ErrNotFound
	}
	return r.lists[id].Clone(), nil
}

func (r *Remote) GetShareCode(ctx context.Context) (string, error) {
	if err := r.enter(ctx, Call{Method: "share-code"}); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, id := range r.shares {
		if id == model.DefaultListID {
			return code, nil
		}
	}
	return "", nil
}

// enter records the call, waits while held and reports injected failures.
func (r *Remote) enter(ctx context.Context, call Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	hold := r.hold
	r.mu.Unlock()

	if hold {
		p := &Pending{Call: call, release: make(chan struct{})}
		r.pending <- p
		select {
		case <-p.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[call.Method]
}

func (r *Remote) handle(ctx context.Context, call Call, apply func(*model.GroceryList, time.Time)) (*model.GroceryList, error) {
	if err := r.enter(ctx, call); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lists[call.ListID]
	if !ok {
		return nil, ErrNotFound
	}
	if apply != nil {
		r.clock = r.clock.Add(time.Second)
		now := r.clock
		apply(l, now)
		l.UpdatedAt = &now
	}
	return l.Clone(), nil
}
