package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Theme         key.Binding
	Seconds       key.Binding
	Sound         key.Binding
	Notifications key.Binding
	Quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Theme:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Seconds:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "seconds")),
		Sound:         key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "sound")),
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Theme, k.Seconds, k.Sound, k.Notifications, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
