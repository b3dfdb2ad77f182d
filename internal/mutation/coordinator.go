// Package mutation applies item changes to the cache optimistically, sends
// them to the list store and reconciles the cache with the store's answer.
package mutation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/toast"
)

// Remote is the part of the list store the coordinator writes to.
type Remote interface {
	AddItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error)
	UpdateItem(ctx context.Context, listID string, item model.GroceryItem) (*model.GroceryList, error)
	DeleteItem(ctx context.Context, listID, itemID string) (*model.GroceryList, error)
}

// Coordinator is the only writer of list entries in the cache.
type Coordinator struct {
	cache    *cache.Store
	remote   Remote
	notifier toast.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Coordinator)

// WithClock overrides the clock used to stamp optimistic changes.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(store *cache.Store, remote Remote, notifier toast.Notifier, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = toast.LogNotifier{Logger: logger}
	}
	c := &Coordinator{
		cache:    store,
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddItem appends item to the cached list right away and returns the
// pending remote call.
func (c *Coordinator) AddItem(listID string, item model.GroceryItem) *Op {
	item.UpdatedAt = nil
	op := c.start(listID, Intent{Kind: KindAdd, Item: item})
	op.call = func(ctx context.Context) (*model.GroceryList, error) {
		return c.remote.AddItem(ctx, listID, item)
	}
	return op
}

// UpdateItem applies changes to the cached item right away and returns the
// pending remote call. When nothing would change, or the item is not in the
// cache, the returned Op is a no-op and the store is never contacted.
func (c *Coordinator) UpdateItem(listID, itemID string, changes Changes) *Op {
	current, ok := c.cache.Peek(listID).List.Item(itemID)
	if !ok {
		c.logger.Debug("update of unknown item ignored", "list_id", listID, "item_id", itemID)
		return c.noop(KindUpdate, listID, itemID)
	}
	next, changed := changes.on(current)
	if !changed {
		return c.noop(KindUpdate, listID, itemID)
	}
	next.UpdatedAt = nil
	op := c.start(listID, Intent{Kind: KindUpdate, Item: next})
	op.call = func(ctx context.Context) (*model.GroceryList, error) {
		return c.remote.UpdateItem(ctx, listID, next)
	}
	return op
}

// DeleteItem removes the item from the cached list right away and returns
// the pending remote call. Deleting an unknown id is a no-op.
func (c *Coordinator) DeleteItem(listID, itemID string) *Op {
	if _, ok := c.cache.Peek(listID).List.Item(itemID); !ok {
		c.logger.Debug("delete of unknown item ignored", "list_id", listID, "item_id", itemID)
		return c.noop(KindDelete, listID, itemID)
	}
	op := c.start(listID, Intent{Kind: KindDelete, Item: model.GroceryItem{ID: itemID}})
	op.call = func(ctx context.Context) (*model.GroceryList, error) {
		return c.remote.DeleteItem(ctx, listID, itemID)
	}
	return op
}

func (c *Coordinator) start(listID string, in Intent) *Op {
	now := c.now()
	undo := c.cache.Patch(listID, func(l *model.GroceryList) {
		*l = *Apply(l, in, now)
	})
	return &Op{
		coord:  c,
		kind:   in.Kind,
		listID: listID,
		itemID: in.Item.ID,
		undo:   undo,
	}
}

func (c *Coordinator) noop(kind Kind, listID, itemID string) *Op {
	return &Op{coord: c, kind: kind, listID: listID, itemID: itemID, noop: true}
}

// Op is a mutation whose optimistic patch is already visible in the cache.
type Op struct {
	coord  *Coordinator
	kind   Kind
	listID string
	itemID string
	noop   bool
	undo   *cache.Undo
	call   func(ctx context.Context) (*model.GroceryList, error)

	once sync.Once
	err  error
}

func (o *Op) Kind() Kind { return o.kind }
func (o *Op) ListID() string { return o.listID }
func (o *Op) ItemID() string { return o.itemID }
func (o *Op) Noop() bool { return o.noop }

// Settle performs the remote call. On success the store's list replaces the
// cached one; on failure the patch is undone, one notification is shown and
// a *Error is returned. Only the first call does any work.
func (o *Op) Settle(ctx context.Context) error {
	o.once.Do(func() {
		if o.noop {
			return
		}
		o.err = o.settle(ctx)
	})
	return o.err
}

func (o *Op) settle(ctx context.Context) error {
	c := o.coord
	list, err := o.call(ctx)
	if err != nil {
		o.undo.Undo()
		merr := &Error{Kind: o.kind, ListID: o.listID, ItemID: o.itemID, Err: err}
		c.logger.Error("mutation failed", "op", o.kind.String(), "list_id", o.listID, "item_id", o.itemID, "error", err)
		c.notifier.Show(merr.Key(), toast.Error)
		return merr
	}
	c.cache.Commit(o.listID, list)
	c.logger.Debug("mutation committed", "op", o.kind.String(), "list_id", o.listID, "item_id", o.itemID)
	return nil
}
