package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	custom    key.Binding
	aspect    key.Binding
	generate  key.Binding
	settings  key.Binding
	edit      key.Binding
	watermark key.Binding
	export    key.Binding
	copy      key.Binding
	restart   key.Binding
	enterKey  key.Binding
	openPage  key.Binding
	test      key.Binding
	billing   key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		custom:    key.NewBinding(key.WithKeys("c", "/"), key.WithHelp("c", "custom")),
		aspect:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "aspect")),
		generate:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "start vibe mapping")),
		settings:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
		watermark: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watermark")),
		export:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
		copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy title")),
		restart:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new vibe")),
		enterKey:  key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "enter key")),
		openPage:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open key page")),
		test:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "test connection")),
		billing:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "billing docs")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.settings, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.custom, k.aspect, k.generate},
		{k.edit, k.watermark, k.export, k.copy, k.restart},
		{k.settings, k.quit},
	}
}
