package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the bindings of the full-screen chat. Bindings are enabled
// and disabled as the model changes state, so help only lists what applies.
type KeyMap struct {
	SubmitMessage    key.Binding
	UnfocusMessage   key.Binding
	FocusMessage     key.Binding
	ScrollUp         key.Binding
	ScrollDown       key.Binding
	CancelCompletion key.Binding
	DismissError     key.Binding
	Help             key.Binding
	Quit             key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
	UnfocusMessage:   key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "scroll history")),
	FocusMessage:     key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "back to input")),
	ScrollUp:         key.NewBinding(key.WithKeys("shift+pgup", "pgup"), key.WithHelp("pgup", "scroll up")),
	ScrollDown:       key.NewBinding(key.WithKeys("shift+pgdown", "pgdown"), key.WithHelp("pgdown", "scroll down")),
	CancelCompletion: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("ctrl+c", "drop question")),
	DismissError:     key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "dismiss")),
	Help:             key.NewBinding(key.WithKeys("ctrl+h"), key.WithHelp("ctrl+h", "help")),
	Quit:             key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+d", "quit")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SubmitMessage, k.FocusMessage, k.CancelCompletion, k.DismissError, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.UnfocusMessage, k.FocusMessage},
		{k.ScrollUp, k.ScrollDown},
		{k.CancelCompletion, k.DismissError},
		{k.Help, k.Quit},
	}
}
