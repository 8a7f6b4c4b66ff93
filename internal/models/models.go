package models

import (
	"slices"
	"strings"
	"time"
)

// Session is the authenticated user as persisted in the ephemeral tier.
type Session struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	LoginAt time.Time `json:"loginAt"`
}

// Track is immutable once built. Genre is "Unknown" and Year is 0 when the source omits them.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Genre       string `json:"genre"`
	Year        int    `json:"year"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

// Playlist is a named sequence of tracks in insertion order.
type Playlist struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerID    string    `json:"ownerId"`
	Tracks     []Track   `json:"tracks"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// HasTrack reports whether a track with the given id is already in the playlist.
func (p Playlist) HasTrack(trackID string) bool {
	return slices.ContainsFunc(p.Tracks, func(t Track) bool { return t.ID == trackID })
}

// WithTrack returns a copy with t appended and ModifiedAt set to at.
//
// The second return value is false, and the playlist is returned unchanged, when a track with the same id is present.
func (p Playlist) WithTrack(t Track, at time.Time) (Playlist, bool) {
	if p.HasTrack(t.ID) {
		return p, false
	}
	out := p.Clone()
	out.Tracks = append(out.Tracks, t)
	out.ModifiedAt = at
	return out, true
}

// WithoutTrack returns a copy without the track identified by trackID and ModifiedAt set to at.
func (p Playlist) WithoutTrack(trackID string, at time.Time) Playlist {
	out := p.Clone()
	out.Tracks = slices.DeleteFunc(out.Tracks, func(t Track) bool { return t.ID == trackID })
	out.ModifiedAt = at
	return out
}

// Clone returns a copy that shares no backing array with p.
func (p Playlist) Clone() Playlist {
	out := p
	out.Tracks = make([]Track, len(p.Tracks))
	copy(out.Tracks, p.Tracks)
	return out
}

// SameName compares playlist names the way uniqueness is enforced: trimmed and case-insensitive.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// OwnedBy filters playlists down to the ones belonging to ownerID, preserving order.
func OwnedBy(all []Playlist, ownerID string) []Playlist {
	out := make([]Playlist, 0, len(all))
	for _, p := range all {
		if p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	return out
}

// IndexOf returns the position of the playlist with the given id, or -1.
func IndexOf(all []Playlist, id string) int {
	return slices.IndexFunc(all, func(p Playlist) bool { return p.ID == id })
}
