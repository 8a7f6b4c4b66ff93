package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// LoadPlaylists reads the durable tier and replaces the view with ownerID's playlists.
//
// Saves, deletes and track edits that settle while the load runs are replayed on top of its result.
func (s *Store) LoadPlaylists(ctx context.Context, ownerID string) *Task[[]models.Playlist] {
	s.mu.Lock()
	s.gen.playlists++
	gen, owner := s.gen.playlists, s.sessionID()
	s.loading = true
	s.journal = nil
	s.apply(PlaylistsPending{})
	s.mu.Unlock()

	work := func(context.Context) ([]models.Playlist, error) {
		return models.OwnedBy(s.durable.LoadAll(), ownerID), nil
	}

	settle := func(playlists []models.Playlist, err error) bool {
		if gen != s.gen.playlists || owner != s.sessionID() {
			return false
		}
		journal := s.journal
		s.dropLoad()
		if err != nil {
			s.apply(PlaylistsFailed{Message: MsgLoadPlaylists})
			return true
		}

		view := PlaylistsState{Playlists: playlists}
		for _, a := range journal {
			view = ReducePlaylists(view, a)
		}
		s.apply(PlaylistsLoaded{Playlists: view.Playlists})
		return true
	}

	return spawn(s, ctx, "load playlists", work, settle)
}

// SavePlaylist writes p to the durable tier and upserts it into the view.
//
// An existing playlist (same id) is replaced in place with a fresh ModifiedAt. A new one is appended
// with fresh CreatedAt and ModifiedAt, and gets an id if it has none. The task value is the stored version.
func (s *Store) SavePlaylist(ctx context.Context, p models.Playlist) *Task[models.Playlist] {
	s.mu.Lock()
	owner := s.sessionID()
	s.apply(PlaylistsPending{})
	s.mu.Unlock()

	work := func(context.Context) (models.Playlist, error) {
		now := s.now()
		stored := p.Clone()
		if stored.ID == "" {
			stored.ID = shared.GenerateID()
		}
		if stored.Tracks == nil {
			stored.Tracks = []models.Track{}
		}

		stored.ModifiedAt = now

		// Persistence failures are logged by the adapter and do not fail the task.
		_ = s.durable.Update(func(all []models.Playlist) []models.Playlist {
			if i := models.IndexOf(all, stored.ID); i >= 0 {
				if stored.CreatedAt.IsZero() {
					stored.CreatedAt = all[i].CreatedAt
				}
				all[i] = stored
				return all
			}
			stored.CreatedAt = now
			return append(all, stored)
		})
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		return stored, nil
	}

	settle := func(stored models.Playlist, err error) bool {
		if owner != s.sessionID() {
			return false
		}
		if err != nil {
			s.apply(PlaylistsFailed{Message: MsgSavePlaylist})
			return true
		}
		s.record(PlaylistSaved{Playlist: stored})
		s.apply(PlaylistSaved{Playlist: stored})
		return true
	}

	return spawn(s, ctx, "save playlist", work, settle)
}

// DeletePlaylist removes the playlist from the durable tier and the view.
//
// If it was the last-accessed playlist, the ephemeral pointer is cleared too.
func (s *Store) DeletePlaylist(ctx context.Context, id string) *Task[string] {
	s.mu.Lock()
	owner := s.sessionID()
	s.apply(PlaylistsPending{})
	s.mu.Unlock()

	work := func(context.Context) (string, error) {
		_ = s.durable.Update(func(all []models.Playlist) []models.Playlist {
			out := all[:0]
			for _, p := range all {
				if p.ID != id {
					out = append(out, p)
				}
			}
			return out
		})
		if last, ok := s.ephemeral.LoadLastPlaylistID(); ok && last == id {
			s.ephemeral.ClearLastPlaylistID()
		}
		return id, nil
	}

	settle := func(id string, err error) bool {
		if owner != s.sessionID() {
			return false
		}
		if err != nil {
			s.apply(PlaylistsFailed{Message: MsgDeletePlaylist})
			return true
		}
		s.record(PlaylistDeleted{ID: id})
		s.apply(PlaylistDeleted{ID: id})
		return true
	}

	return spawn(s, ctx, "delete playlist", work, settle)
}

// CreatePlaylist validates name against the logged-in user's playlists and saves a new, empty playlist.
//
// A validation failure sets the playlist validation error and returns a [*shared.ValidationError].
func (s *Store) CreatePlaylist(ctx context.Context, name string) (*Task[models.Playlist], error) {
	owner, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	if err := s.validateName(owner, "", name); err != nil {
		return nil, err
	}

	p := models.Playlist{
		ID:      shared.GenerateID(),
		Name:    strings.TrimSpace(name),
		OwnerID: owner,
		Tracks:  []models.Track{},
	}
	return s.SavePlaylist(ctx, p), nil
}

// RenamePlaylist validates name, ignoring the playlist being renamed, and saves the renamed playlist.
func (s *Store) RenamePlaylist(ctx context.Context, id, name string) (*Task[models.Playlist], error) {
	owner, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	owned := models.OwnedBy(s.durable.LoadAll(), owner)
	i := models.IndexOf(owned, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	if err := s.validateName(owner, id, name); err != nil {
		return nil, err
	}

	p := owned[i]
	p.Name = strings.TrimSpace(name)
	return s.SavePlaylist(ctx, p), nil
}

func (s *Store) validateName(owner, exceptID, name string) error {
	owned := models.OwnedBy(s.durable.LoadAll(), owner)
	taken := func(candidate string) bool {
		for _, p := range owned {
			if p.ID != exceptID && models.SameName(p.Name, candidate) {
				return true
			}
		}
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := shared.ValidatePlaylistName(name, taken); err != nil {
		s.apply(PlaylistValidationFailed{Message: err.Error()})
		return err
	}
	s.apply(PlaylistValidationFailed{Message: ""})
	return nil
}

func (s *Store) requireSession() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.sessionID(); id != "" {
		return id, nil
	}
	return "", shared.ErrNotAuthenticated
}

// SetCurrentPlaylist opens p and records it as the last-accessed playlist.
func (s *Store) SetCurrentPlaylist(p models.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(CurrentPlaylistSet{Playlist: p})
	s.ephemeral.SaveLastPlaylistID(p.ID)
}

// OpenPlaylist looks id up in the view and makes it the current playlist.
func (s *Store) OpenPlaylist(id string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := models.IndexOf(s.state.Playlists.Playlists, id)
	if i < 0 {
		return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	p := s.state.Playlists.Playlists[i].Clone()
	s.apply(CurrentPlaylistSet{Playlist: p})
	s.ephemeral.SaveLastPlaylistID(p.ID)
	return p, nil
}

// ClearCurrentPlaylist closes the open playlist. The last-accessed pointer is kept.
func (s *Store) ClearCurrentPlaylist() {
	s.dispatch(CurrentPlaylistCleared{})
}

// LastPlaylist resolves the last-accessed pointer against the view.
func (s *Store) LastPlaylist() (models.Playlist, bool) {
	id, ok := s.ephemeral.LoadLastPlaylistID()
	if !ok {
		return models.Playlist{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := models.IndexOf(s.state.Playlists.Playlists, id)
	if i < 0 {
		return models.Playlist{}, false
	}
	return s.state.Playlists.Playlists[i].Clone(), true
}

// AddTrackToPlaylist appends track to the playlist in the view and mirrors it to the durable tier.
//
// It reports false, changing nothing, when the playlist is not in the view or already has a track with the same id.
func (s *Store) AddTrackToPlaylist(playlistID string, track models.Track) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := models.IndexOf(s.state.Playlists.Playlists, playlistID)
	if i < 0 {
		return false
	}
	updated, added := s.state.Playlists.Playlists[i].WithTrack(track, s.now())
	if !added {
		return false
	}

	s.record(PlaylistUpdated{Playlist: updated})
	s.apply(PlaylistUpdated{Playlist: updated})
	s.mirror(updated)
	return true
}

// RemoveTrackFromPlaylist drops the track from the playlist in the view and mirrors it to the durable tier.
//
// It reports false when the playlist is not in the view.
func (s *Store) RemoveTrackFromPlaylist(playlistID, trackID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := models.IndexOf(s.state.Playlists.Playlists, playlistID)
	if i < 0 {
		return false
	}
	updated := s.state.Playlists.Playlists[i].WithoutTrack(trackID, s.now())

	s.record(PlaylistUpdated{Playlist: updated})
	s.apply(PlaylistUpdated{Playlist: updated})
	s.mirror(updated)
	return true
}

// mirror overwrites the durable copy of p, if there is one. The caller holds s.mu.
func (s *Store) mirror(p models.Playlist) {
	_ = s.durable.Update(func(all []models.Playlist) []models.Playlist {
		if i := models.IndexOf(all, p.ID); i >= 0 {
			all[i] = p.Clone()
		}
		return all
	})
}

// ClearPlaylistsError clears both the task error and the validation error.
func (s *Store) ClearPlaylistsError() {
	s.dispatch(PlaylistsErrorCleared{})
}
