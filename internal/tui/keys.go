package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	MoveUp    key.Binding
	MoveDown  key.Binding
	Done      key.Binding
	Add       key.Binding
	Delete    key.Binding
	Refresh   key.Binding
	Cancel    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column right")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "task up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "task down")),
	MoveLeft:  key.NewBinding(key.WithKeys("shift+left", "H", "<"), key.WithHelp("H/<", "move to previous column")),
	MoveRight: key.NewBinding(key.WithKeys("shift+right", "L", ">"), key.WithHelp("L/>", "move to next column")),
	MoveUp:    key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "move up")),
	MoveDown:  key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "move down")),
	Done:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "mark done")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Delete:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete task")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MoveLeft, k.MoveRight, k.Add, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.MoveLeft, k.MoveRight, k.MoveUp, k.MoveDown, k.Done},
		{k.Add, k.Delete, k.Refresh, k.Cancel, k.Help, k.Quit},
	}
}
