package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	tab       key.Binding
	search    key.Binding
	playlists key.Binding
	resume    key.Binding
	create    key.Binding
	rename    key.Binding
	remove    key.Binding
	add       key.Binding
	logout    key.Binding
	yes       key.Binding
	no        key.Binding
	quit      key.Binding
	forceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		tab:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		playlists: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "playlists")),
		resume:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "continue")),
		create:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
		remove:    key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		forceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.search, k.playlists, k.resume, k.add},
		{k.create, k.rename, k.remove, k.logout},
		{k.quit},
	}
}
