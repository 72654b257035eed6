package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Start   key.Binding
	Back    key.Binding
	Forward key.Binding
	First   key.Binding
	Last    key.Binding
	LogUp   key.Binding
	LogDown key.Binding
	Theme   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s", "start"),
		),
		Back: key.NewBinding(
			key.WithKeys("[", "left", "h"),
			key.WithHelp("[", "previous step"),
		),
		Forward: key.NewBinding(
			key.WithKeys("]", "right", "l"),
			key.WithHelp("]", "next step"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first step"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "latest step"),
		),
		LogUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "log up"),
		),
		LogDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "log down"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{k.Start, k.Back, k.Forward, k.First, k.Last, k.LogUp, k.LogDown, k.Theme, k.Help, k.Quit}
}
