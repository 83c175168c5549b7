package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings for the watch view.
type keyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Reset   key.Binding
}

// defaultKeyMap returns the default key bindings.
func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q", "esc"),
			key.WithHelp("q", "Quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh from server"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reset to 12h (admin)"),
		),
	}
}

func (k keyMap) bindings(admin bool) []key.Binding {
	if admin {
		return []key.Binding{k.Refresh, k.Reset, k.Quit}
	}
	return []key.Binding{k.Refresh, k.Quit}
}
