package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add     key.Binding
	Open    key.Binding
	Toggle  key.Binding
	Edit    key.Binding
	View    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Submit  key.Binding
	Next    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "done")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		View:    key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "discard edits")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Submit:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Next:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "delete")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// listKeys are shown under the cards.
func (k keyMap) listKeys() []key.Binding {
	return []key.Binding{k.Add, k.Open, k.Toggle, k.Edit, k.Delete, k.Refresh}
}

func (k keyMap) addKeys() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.Back}
}

func (k keyMap) editKeys() []key.Binding {
	return []key.Binding{k.Submit, k.Next, k.View, k.Back}
}

func (k keyMap) detailKeys() []key.Binding {
	return []key.Binding{k.Toggle, k.Edit, k.Delete, k.Back}
}

func (k keyMap) confirmKeys() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
