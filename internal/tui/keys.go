package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	SwitchTab key.Binding
	Pending   key.Binding
	Completed key.Binding
	Add       key.Binding
	Edit      key.Binding
	Toggle    key.Binding
	Delete    key.Binding
	Share     key.Binding
	Lists     key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding

	// Drafting
	Commit  key.Binding
	Blur    key.Binding
	Suggest key.Binding

	// Selector
	Choose key.Binding
	Close  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		SwitchTab: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Pending:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "pending")),
		Completed: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "completed")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Share:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "share link")),
		Lists:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "lists")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),

		Commit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Blur:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		Suggest: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "suggestion")),

		Choose: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Close:  key.NewBinding(key.WithKeys("esc", "L"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Toggle, k.Delete, k.SwitchTab, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchTab, k.Pending, k.Completed},
		{k.Add, k.Edit, k.Toggle, k.Delete},
		{k.Share, k.Lists, k.Help, k.Quit},
	}
}

// draftKeys is the help shown while typing.
type draftKeys keyMap

func (k draftKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Commit, k.Blur, k.Suggest}
}

func (k draftKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
