// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a client of a single [state.Store]:
//  1. [LoginView] : Email and password form
//  2. [HomeView] : Popular tracks and the last opened playlist
//  3. [PlaylistsView] : Create, rename, delete and open playlists
//  4. [PlaylistView] : Tracks of the open playlist
//  5. [SearchView] : Exact artist/title search
//  6. [PickerView] : Choose the playlist a track is added to
//
// The [Model] never mutates application state itself. It calls store operations and redraws from the snapshots
// the store publishes on its subscription channel, so the screen always reflects the latest state.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
