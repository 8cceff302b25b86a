package components

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the playground key bindings
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Clear  key.Binding
	Copy   key.Binding
	SignIn key.Binding
	Close  key.Binding
	Submit key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear key"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy key"),
		),
		SignIn: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "sign in"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SignIn, k.Clear, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SignIn, k.Submit, k.Close},
		{k.Clear, k.Copy},
		{k.Help, k.Quit},
	}
}
