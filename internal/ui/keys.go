package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding the App reacts to. Printable keys go to the
// search input, so navigation sits on arrows and control chords.
type keyMap struct {
	Quit       key.Binding
	NextScope  key.Binding
	PrevScope  key.Binding
	ToggleView key.Binding
	Debug      key.Binding
	Up         key.Binding
	Down       key.Binding
	NextItem   key.Binding
	PrevItem   key.Binding
	Clear      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		NextScope: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "scope"),
		),
		PrevScope: key.NewBinding(
			key.WithKeys("shift+tab"),
		),
		ToggleView: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "table/grid"),
		),
		Debug: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("^d", "debug"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑/↓", "move"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
		),
		NextItem: key.NewBinding(
			key.WithKeys("ctrl+n"),
		),
		PrevItem: key.NewBinding(
			key.WithKeys("ctrl+p"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("^u", "clear"),
		),
	}
}

// hints are the bindings listed in the status bar.
func (k keyMap) hints() []key.Binding {
	return []key.Binding{k.Up, k.NextScope, k.ToggleView, k.Clear, k.Debug, k.Quit}
}
