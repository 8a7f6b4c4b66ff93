package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotifsc/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
	if !i.playlist.ModifiedAt.IsZero() {
		desc = fmt.Sprintf("%s • updated %s", desc, i.playlist.ModifiedAt.Local().Format("Jan 2 15:04"))
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	parts := []string{i.track.Artist}
	if i.track.Genre != "" && i.track.Genre != "Unknown" {
		parts = append(parts, i.track.Genre)
	}
	if i.track.Year > 0 {
		parts = append(parts, fmt.Sprint(i.track.Year))
	}
	return strings.Join(parts, " • ")
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p}
	}
	return items
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func selectedPlaylist(l list.Model) (models.Playlist, bool) {
	if item, ok := l.SelectedItem().(playlistItem); ok {
		return item.playlist, true
	}
	return models.Playlist{}, false
}

func selectedTrack(l list.Model) (models.Track, bool) {
	if item, ok := l.SelectedItem().(trackItem); ok {
		return item.track, true
	}
	return models.Track{}, false
}
