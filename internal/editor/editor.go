// Package editor holds the add/rename state of a single grocery list view.
//
// An Editor is either Idle, Drafting a new item or a rename of an existing
// one, or Committing a draft to the list store. Every transition happens
// synchronously under the editor's lock, so a second commit issued before
// the first one settles is ignored rather than sent twice.
package editor

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/mutation"
)

type State int

const (
	Idle State = iota
	Drafting
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case Committing:
		return "committing"
	default:
		return "unknown"
	}
}

// Draft is the item being typed. Target is empty for a new item and holds
// the persisted id when an existing item is being renamed.
type Draft struct {
	Name      string
	Completed bool
	Target    string
}

// IsNew reports whether the draft will create an item.
func (d Draft) IsNew() bool { return d.Target == "" }

// Outcome says what a commit did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDiscarded
	OutcomeSaved
	OutcomeRenamed
	OutcomeMerged
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeSaved:
		return "saved"
	case OutcomeRenamed:
		return "renamed"
	case OutcomeMerged:
		return "merged"
	case OutcomeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

type Editor struct {
	mu     sync.Mutex
	listID string
	cache  *cache.Store
	coord  *mutation.Coordinator
	newID  func() string
	logger *slog.Logger

	state State
	draft Draft
	// gen changes whenever a draft starts or is dropped; a Pending only
	// moves the editor if its generation is still current.
	gen uint64
}

type Option func(*Editor)

// WithIDs overrides the generator for new item ids.
func WithIDs(newID func() string) Option {
	return func(e *Editor) { e.newID = newID }
}

func New(listID string, store *cache.Store, coord *mutation.Coordinator, logger *slog.Logger, opts ...Option) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Editor{
		listID: listID,
		cache:  store,
		coord:  coord,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Draft returns the current draft and whether one exists. A draft exists
// while Drafting and while Committing.
func (e *Editor) Draft() (Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft, e.state != Idle
}

func (e *Editor) ListID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listID
}

// SetList points the editor at another list. Any draft is dropped.
func (e *Editor) SetList(listID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if listID == e.listID {
		return
	}
	e.listID = listID
	e.resetLocked()
}

// BeginAdd starts a draft for a new item. If a new draft with no text is
// already open nothing happens. A draft holding text is committed first;
// the returned Pending (nil when nothing was committed) settles it.
func (e *Editor) BeginAdd() *Pending {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Drafting && e.draft.IsNew() && blank(e.draft.Name) {
		return nil
	}
	p := e.leaveLocked()
	e.startLocked(Draft{})
	return p
}

// BeginEdit starts a rename draft for itemID. Unknown ids are ignored. The
// open draft, if any, is handled as in BeginAdd.
func (e *Editor) BeginEdit(itemID string) *Pending {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Drafting && e.draft.Target == itemID {
		return nil
	}
	item, ok := e.cache.Peek(e.listID).List.Item(itemID)
	if !ok {
		return nil
	}
	p := e.leaveLocked()
	e.startLocked(Draft{Name: item.Name, Completed: item.Completed, Target: item.ID})
	return p
}

// Rename sets the draft's working name. It reports false outside Drafting.
func (e *Editor) Rename(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return false
	}
	e.draft.Name = name
	return true
}

// Discard drops the open draft without contacting the list store.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Drafting {
		e.resetLocked()
	}
}

// Commit sends the draft. It is valid only while Drafting; any other call
// returns OutcomeIgnored and a nil Pending.
func (e *Editor) Commit() (Outcome, *Pending) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commitLocked()
}

// Select applies a chosen suggestion. A name that exactly matches a
// completed item other than the draft's target brings that item back
// immediately; any other name only replaces the working name.
func (e *Editor) Select(name string) (Outcome, *Pending) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Drafting {
		return OutcomeIgnored, nil
	}
	list := e.cache.Peek(e.listID).List
	if list != nil {
		for _, it := range list.Items {
			if it.Completed && strings.TrimSpace(it.Name) == name && it.ID != e.draft.Target {
				e.draft.Name = name
				return e.mergeLocked(it)
			}
		}
	}
	e.draft.Name = name
	return OutcomeIgnored, nil
}

// Toggle flips the completed flag of itemID.
func (e *Editor) Toggle(itemID string) *mutation.Op {
	e.mu.Lock()
	listID := e.listID
	e.mu.Unlock()

	item, ok := e.cache.Peek(listID).List.Item(itemID)
	if !ok {
		return e.coord.UpdateItem(listID, itemID, mutation.Changes{})
	}
	return e.coord.UpdateItem(listID, itemID, mutation.SetCompleted(!item.Completed))
}

// Delete removes itemID. Deleting the item being renamed ends the draft.
func (e *Editor) Delete(itemID string) *mutation.Op {
	e.mu.Lock()
	listID := e.listID
	if e.state == Drafting && e.draft.Target == itemID {
		e.resetLocked()
	}
	e.mu.Unlock()
	return e.coord.DeleteItem(listID, itemID)
}

func (e *Editor) commitLocked() (Outcome, *Pending) {
	if e.state != Drafting {
		return OutcomeIgnored, nil
	}
	d := e.draft
	name := strings.TrimSpace(d.Name)

	if name == "" {
		if d.IsNew() {
			e.resetLocked()
			return OutcomeDiscarded, nil
		}
		return OutcomeDeleted, e.sendLocked(e.coord.DeleteItem(e.listID, d.Target), OutcomeDeleted)
	}

	if match, ok := completedNamed(e.cache.Peek(e.listID).List, name, d.Target); ok {
		return e.mergeLocked(match)
	}

	if d.IsNew() {
		item := model.GroceryItem{ID: e.newID(), Name: name, Completed: d.Completed}
		return OutcomeSaved, e.sendLocked(e.coord.AddItem(e.listID, item), OutcomeSaved)
	}
	return OutcomeRenamed, e.sendLocked(e.coord.UpdateItem(e.listID, d.Target, mutation.SetName(name)), OutcomeRenamed)
}

func (e *Editor) mergeLocked(match model.GroceryItem) (Outcome, *Pending) {
	e.logger.Debug("draft merged into completed item", "list_id", e.listID, "item_id", match.ID)
	op := e.coord.UpdateItem(e.listID, match.ID, mutation.SetCompleted(false))
	return OutcomeMerged, e.sendLocked(op, OutcomeMerged)
}

func (e *Editor) sendLocked(op *mutation.Op, outcome Outcome) *Pending {
	e.state = Committing
	return &Pending{editor: e, op: op, gen: e.gen, outcome: outcome}
}

// leaveLocked ends the open draft ahead of a new one: text is committed,
// an empty draft is dropped.
func (e *Editor) leaveLocked() *Pending {
	if e.state != Drafting {
		return nil
	}
	if blank(e.draft.Name) {
		e.resetLocked()
		return nil
	}
	_, p := e.commitLocked()
	return p
}

func (e *Editor) startLocked(d Draft) {
	e.gen++
	e.state = Drafting
	e.draft = d
}

func (e *Editor) resetLocked() {
	e.gen++
	e.state = Idle
	e.draft = Draft{}
}

func (e *Editor) settled(p *Pending, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != p.gen || e.state != Committing {
		return
	}
	if err != nil {
		e.logger.Debug("draft dropped after failed commit", "list_id", e.listID, "outcome", p.outcome)
	}
	e.resetLocked()
}

// Pending is a commit waiting for the list store.
type Pending struct {
	editor  *Editor
	op      *mutation.Op
	gen     uint64
	outcome Outcome
}

func (p *Pending) Outcome() Outcome { return p.outcome }

func (p *Pending) Op() *mutation.Op { return p.op }

// Settle waits for the mutation, then returns the editor to Idle whether or
// not it succeeded, unless the user has already moved on to another draft.
// A failure has already been rolled back and reported by the Coordinator.
func (p *Pending) Settle(ctx context.Context) error {
	err := p.op.Settle(ctx)
	p.editor.settled(p, err)
	return err
}

func completedNamed(list *model.GroceryList, name, exclude string) (model.GroceryItem, bool) {
	if list == nil {
		return model.GroceryItem{}, false
	}
	for _, it := range list.Items {
		if it.Completed && it.ID != exclude && strings.EqualFold(strings.TrimSpace(it.Name), name) {
			return it, true
		}
	}
	return model.GroceryItem{}, false
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
