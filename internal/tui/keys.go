package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Clear  key.Binding
	Press  key.Binding
	New    key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next")),
		Prev:   key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev")),
		Clear:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("⌫", "clear")),
		Press:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "check / press")),
		New:    key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new game")),
		Toggle: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "show/hide")),
		Quit:   key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp and FullHelp implement help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.New, k.Toggle, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Clear}, {k.Press, k.New, k.Toggle, k.Quit}}
}
