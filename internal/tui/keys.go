package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Submit key.Binding
	Close  key.Binding
	Clear  key.Binding
	Locate key.Binding
	Units  key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "navigate")),
		Down:   key.NewBinding(key.WithKeys("down")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Clear:  key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "clear")),
		Locate: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "current location")),
		Units:  key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "°C/°F")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Submit, k.Close, k.Clear, k.Locate, k.Units, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
