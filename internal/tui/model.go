// Package tui is the interactive terminal client for a grocery list.
//
// All cache patches happen inside Update, so the visible order of changes
// follows the order of key presses. Remote calls run as tea.Cmds and report
// back with settledMsg.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dukerupert/list42/internal/cache"
	"github.com/dukerupert/list42/internal/editor"
	"github.com/dukerupert/list42/internal/model"
	"github.com/dukerupert/list42/internal/mutation"
	"github.com/dukerupert/list42/internal/share"
	"github.com/dukerupert/list42/internal/toast"
)

const (
	settleTimeout  = 15 * time.Second
	toastDuration  = 4 * time.Second
	maxSuggestions = 5
)

// Selection persists the chosen list.
type Selection interface {
	SetSelectedList(userID, listID string) error
}

type Config struct {
	Cache     *cache.Store
	Editor    *editor.Editor
	Redeemer  *share.Redeemer
	Selection Selection
	Notifier  *Notifier
	UserID    string
	// BaseURL is the address share links point at.
	BaseURL string
	Logger  *slog.Logger
	// CopyLink puts a share link on the clipboard. Defaults to the system
	// clipboard.
	CopyLink func(string) error
}

type tab int

const (
	tabPending tab = iota
	tabCompleted
)

type (
	cacheEventMsg struct {
		ev     cache.Event
		closed bool
	}
	settledMsg struct {
		err error
	}
	shareLinkMsg struct {
		link string
		err  error
	}
	clearToastMsg struct {
		seq int
	}
)

type Model struct {
	cfg  Config
	sub  *cache.Subscription
	keys keyMap
	help help.Model

	input       textinput.Model
	suggestions []string
	suggestion  int

	tab    tab
	cursor int

	selecting bool
	selCursor int

	toast    *toast.Notification
	toastSeq int
	link     string

	quitting bool
}

func New(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotifier()
	}
	if cfg.CopyLink == nil {
		cfg.CopyLink = clipboard.WriteAll
	}

	ti := textinput.New()
	ti.Prompt = "+ "
	ti.Placeholder = "Add an item"
	ti.CharLimit = 200
	ti.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		cfg:        cfg,
		sub:        cfg.Cache.Subscribe(),
		keys:       defaultKeys(),
		help:       help.New(),
		input:      ti,
		suggestion: -1,
	}
}

func (m Model) Init() tea.Cmd {
	m.cfg.Cache.Get(m.listID())
	m.cfg.Cache.Lists()
	return tea.Batch(waitForEvent(m.sub), m.cfg.Notifier.wait())
}

func waitForEvent(sub *cache.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Events()
		return cacheEventMsg{ev: ev, closed: !ok}
	}
}

func settle(p *editor.Pending) tea.Cmd {
	if p == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		return settledMsg{err: p.Settle(ctx)}
	}
}

func settleOp(op *mutation.Op) tea.Cmd {
	if op == nil || op.Noop() {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		return settledMsg{err: op.Settle(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case cacheEventMsg:
		if msg.closed {
			return m, nil
		}
		m.onCacheEvent(msg.ev)
		return m, waitForEvent(m.sub)

	case toastMsg:
		n := toast.Notification(msg)
		m.toast = &n
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Batch(m.cfg.Notifier.wait(), tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return clearToastMsg{seq: seq}
		}))

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case settledMsg:
		if msg.err != nil {
			m.cfg.Logger.Debug("mutation failed", "error", msg.err)
		}
		m.syncInput()
		m.clampCursor()
		return m, nil

	case shareLinkMsg:
		if msg.err != nil {
			return m, nil
		}
		m.link = msg.link
		if err := m.cfg.CopyLink(msg.link); err != nil {
			m.cfg.Logger.Debug("copy share link", "error", err)
		}
		m.cfg.Notifier.Show(toast.ShareLinkCopied, toast.Success)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) onCacheEvent(ev cache.Event) {
	switch {
	case ev.ListID == "":
		if ev.Kind == cache.EventInvalidated {
			m.cfg.Cache.Lists()
		}
		if ev.Kind == cache.EventFetched {
			m.checkSelection()
		}
	case ev.ListID == m.listID():
		switch ev.Kind {
		case cache.EventInvalidated:
			m.cfg.Cache.Get(ev.ListID)
		case cache.EventFailed:
			m.cfg.Notifier.Show(toast.FetchError, toast.Error)
		}
	}
	m.clampCursor()
}

// checkSelection falls back to the user's own list when the selected list
// is no longer visible.
func (m *Model) checkSelection() {
	ix := m.cfg.Cache.Lists()
	if ix.Status != cache.StatusReady || contains(ix.Lists, m.listID()) {
		return
	}
	m.selectList(model.DefaultListID)
}

func (m *Model) selectList(listID string) {
	if listID == m.listID() {
		return
	}
	m.cfg.Editor.SetList(listID)
	if m.cfg.Selection != nil {
		if err := m.cfg.Selection.SetSelectedList(m.cfg.UserID, listID); err != nil {
			m.cfg.Logger.Warn("save selected list", "error", err)
		}
	}
	m.cfg.Cache.Get(listID)
	m.cursor = 0
	m.tab = tabPending
	m.syncInput()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}
	if m.selecting {
		return m.handleSelectorKey(msg)
	}
	if m.cfg.Editor.State() == editor.Drafting {
		return m.handleDraftKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.cursor--
	case key.Matches(msg, m.keys.Down):
		m.cursor++
	case key.Matches(msg, m.keys.SwitchTab):
		m.setTab(1 - m.tab)
	case key.Matches(msg, m.keys.Pending):
		m.setTab(tabPending)
	case key.Matches(msg, m.keys.Completed):
		m.setTab(tabCompleted)
	case key.Matches(msg, m.keys.Add):
		p := m.cfg.Editor.BeginAdd()
		m.tab = tabPending
		m.syncInput()
		return m, settle(p)
	case key.Matches(msg, m.keys.Edit):
		if item, ok := m.currentItem(); ok {
			p := m.cfg.Editor.BeginEdit(item.ID)
			m.syncInput()
			return m, settle(p)
		}
	case key.Matches(msg, m.keys.Toggle):
		if item, ok := m.currentItem(); ok {
			return m, settleOp(m.cfg.Editor.Toggle(item.ID))
		}
	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.currentItem(); ok {
			return m, settleOp(m.cfg.Editor.Delete(item.ID))
		}
	case key.Matches(msg, m.keys.Share):
		return m, m.shareLink()
	case key.Matches(msg, m.keys.Lists):
		if lists := visibleLists(m.cfg.Cache.Lists().Lists); lists != nil {
			m.selecting = true
			m.selCursor = 0
			for i, l := range lists {
				if l.ID == m.listID() {
					m.selCursor = i
				}
			}
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.clampCursor()
	return m, nil
}

func (m Model) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Commit):
		var (
			outcome editor.Outcome
			p       *editor.Pending
		)
		if m.suggestion >= 0 {
			outcome, p = m.cfg.Editor.Select(m.suggestions[m.suggestion])
		}
		if p == nil {
			outcome, p = m.cfg.Editor.Commit()
		}
		cmds := []tea.Cmd{settle(p)}
		if outcome == editor.OutcomeSaved {
			cmds = append(cmds, settle(m.cfg.Editor.BeginAdd()))
		}
		m.syncInput()
		m.clampCursor()
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.Blur):
		_, p := m.cfg.Editor.Commit()
		m.syncInput()
		m.clampCursor()
		return m, settle(p)

	case key.Matches(msg, m.keys.Suggest):
		if len(m.suggestions) > 0 {
			m.suggestion = (m.suggestion + 1) % len(m.suggestions)
			name := m.suggestions[m.suggestion]
			m.input.SetValue(name)
			m.input.CursorEnd()
			m.cfg.Editor.Rename(name)
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.cfg.Editor.Rename(v)
		m.suggestion = -1
		m.suggestions = nil
		if strings.TrimSpace(v) != "" {
			s := m.cfg.Editor.Suggestions(v)
			m.suggestions = s[:min(len(s), maxSuggestions)]
		}
	}
	return m, cmd
}

func (m Model) handleSelectorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lists := m.cfg.Cache.Lists().Lists
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selCursor = max(m.selCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.selCursor = min(m.selCursor+1, max(len(lists)-1, 0))
	case key.Matches(msg, m.keys.Choose):
		if m.selCursor < len(lists) {
			m.selectList(lists[m.selCursor].ID)
		}
		m.selecting = false
	case key.Matches(msg, m.keys.Close):
		m.selecting = false
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.sub.Unsubscribe()
	return m, tea.Quit
}

func (m *Model) shareLink() tea.Cmd {
	if m.cfg.Redeemer == nil {
		return nil
	}
	r, base := m.cfg.Redeemer, m.cfg.BaseURL
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
		defer cancel()
		link, err := r.Link(ctx, base)
		return shareLinkMsg{link: link, err: err}
	}
}

// syncInput mirrors the editor's draft into the text input.
func (m *Model) syncInput() {
	d, _ := m.cfg.Editor.Draft()
	if m.cfg.Editor.State() != editor.Drafting {
		m.input.Blur()
		m.input.Reset()
		m.suggestions = nil
		m.suggestion = -1
		return
	}
	m.input.Focus()
	if m.input.Value() != d.Name {
		m.input.SetValue(d.Name)
		m.input.CursorEnd()
	}
	if !d.IsNew() && d.Completed {
		m.tab = tabCompleted
	}
}

func (m *Model) setTab(t tab) {
	if m.tab != t {
		m.tab = t
		m.cursor = 0
	}
}

func (m Model) listID() string {
	return m.cfg.Editor.ListID()
}

// rows returns the rows of the active tab.
func (m Model) rows() []editor.Row {
	all := m.cfg.Editor.Rows(m.cfg.Cache.Peek(m.listID()).List)
	out := make([]editor.Row, 0, len(all))
	for _, r := range all {
		switch r := r.(type) {
		case editor.DraftRow:
			if m.tab == tabPending {
				out = append(out, r)
			}
		case editor.ItemRow:
			if r.Item.Completed == (m.tab == tabCompleted) {
				out = append(out, r)
			}
		}
	}
	return out
}

func (m Model) currentItem() (model.GroceryItem, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return model.GroceryItem{}, false
	}
	r, ok := rows[m.cursor].(editor.ItemRow)
	return r.Item, ok
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	m.cursor = min(m.cursor, n-1)
	m.cursor = max(m.cursor, 0)
}

func (m Model) counts() (pending, completed int) {
	list := m.cfg.Cache.Peek(m.listID()).List
	if list == nil {
		return 0, 0
	}
	for _, it := range list.Items {
		if it.Completed {
			completed++
		} else {
			pending++
		}
	}
	return pending, completed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	lists := m.cfg.Cache.Peek(m.listID())
	index := m.cfg.Cache.Lists()
	b.WriteString(titleStyle.Render("list42 · "+labelFor(index.Lists, m.listID())) + "\n\n")

	if m.selecting {
		b.WriteString(m.selectorView(index.Lists))
		b.WriteString("\n" + m.help.View(m.keys) + "\n")
		return b.String()
	}

	pending, completed := m.counts()
	tabs := []string{fmt.Sprintf("Pending (%d)", pending), fmt.Sprintf("Completed (%d)", completed)}
	for i, t := range tabs {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(t)
		} else {
			tabs[i] = tabStyle.Render(t)
		}
	}
	b.WriteString(strings.Join(tabs, "   ") + "\n\n")

	switch {
	case lists.List == nil && lists.Status == cache.StatusFailed:
		b.WriteString(dimStyle.Render(toast.Message(toast.FetchError)) + "\n")
	case lists.List == nil:
		b.WriteString(dimStyle.Render("Loading…") + "\n")
	default:
		b.WriteString(m.rowsView())
	}

	if len(m.suggestions) > 0 && m.cfg.Editor.State() == editor.Drafting {
		parts := make([]string, len(m.suggestions))
		for i, s := range m.suggestions {
			if i == m.suggestion {
				parts[i] = pickedStyle.Render(s)
			} else {
				parts[i] = suggestStyle.Render(s)
			}
		}
		b.WriteString("\n  " + strings.Join(parts, suggestStyle.Render(" · ")) + "\n")
	}

	if m.link != "" {
		b.WriteString("\n" + dimStyle.Render("Share: "+m.link) + "\n")
	}
	if m.toast != nil {
		style, ok := toastStyles[string(m.toast.Severity)]
		if !ok {
			style = toastStyles["info"]
		}
		b.WriteString("\n" + style.Render(toast.Message(m.toast.Key)) + "\n")
	}

	b.WriteString("\n")
	if m.cfg.Editor.State() == editor.Drafting {
		b.WriteString(m.help.View(draftKeys(m.keys)))
	} else {
		b.WriteString(m.help.View(m.keys))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) rowsView() string {
	rows := m.rows()
	if len(rows) == 0 {
		if m.tab == tabPending {
			return dimStyle.Render("Nothing to buy. Press a to add an item.") + "\n"
		}
		return dimStyle.Render("No completed items.") + "\n"
	}
	drafting := m.cfg.Editor.State() == editor.Drafting

	var b strings.Builder
	for i, r := range rows {
		pointer := "  "
		if i == m.cursor && !drafting {
			pointer = cursorStyle.Render("> ")
		}
		switch r := r.(type) {
		case editor.DraftRow:
			b.WriteString("  " + m.input.View() + "\n")
		case editor.ItemRow:
			if r.Editing {
				b.WriteString("  " + m.input.View() + "\n")
				continue
			}
			box, name := "[ ] ", r.Item.Name
			if r.Item.Completed {
				box, name = "[x] ", doneStyle.Render(name)
			}
			b.WriteString(pointer + box + name + "\n")
		}
	}
	return b.String()
}

func (m Model) selectorView(lists []model.ListSummary) string {
	var b strings.Builder
	for i, l := range lists {
		pointer := "  "
		if i == m.selCursor {
			pointer = cursorStyle.Render("> ")
		}
		label := ListLabel(l)
		if l.ID == m.listID() {
			label += dimStyle.Render(" (current)")
		}
		b.WriteString(pointer + label + "\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}
