package state

import (
	"slices"

	"github.com/desertthunder/spotifsc/internal/models"
)

// AuthState is the authentication sub-state.
type AuthState struct {
	Authenticated bool
	Session       *models.Session
	Pending       bool
	Error         string
}

// PlaylistsState holds only the logged-in user's playlists.
type PlaylistsState struct {
	Playlists       []models.Playlist
	Current         *models.Playlist
	Pending         bool
	Error           string
	ValidationError string
}

// TracksState holds the two independent result sets. Neither is persisted.
type TracksState struct {
	Popular        []models.Track
	Results        []models.Track
	Current        *models.Track
	PopularPending bool
	SearchPending  bool
	Error          string
}

// Pending reports whether either track request is in flight.
func (t TracksState) Pending() bool {
	return t.PopularPending || t.SearchPending
}

// Snapshot is the whole store state at one point in time.
type Snapshot struct {
	Auth      AuthState
	Playlists PlaylistsState
	Tracks    TracksState
}

// Clone returns a deep copy of s that shares nothing with it.
func (s Snapshot) Clone() Snapshot {
	if s.Auth.Session != nil {
		session := *s.Auth.Session
		s.Auth.Session = &session
	}
	s.Playlists.Playlists = clonePlaylists(s.Playlists.Playlists)
	if s.Playlists.Current != nil {
		p := s.Playlists.Current.Clone()
		s.Playlists.Current = &p
	}
	s.Tracks.Popular = slices.Clone(s.Tracks.Popular)
	s.Tracks.Results = slices.Clone(s.Tracks.Results)
	if s.Tracks.Current != nil {
		t := *s.Tracks.Current
		s.Tracks.Current = &t
	}
	return s
}

// SessionID returns the logged-in user's id, or "".
func (s Snapshot) SessionID() string {
	if s.Auth.Session == nil {
		return ""
	}
	return s.Auth.Session.ID
}

// Action is an input to [Reduce].
type Action interface {
	isAction()
}

type (
	LoginStarted     struct{}
	LoginSucceeded   struct{ Session models.Session }
	LoginFailed      struct{ Message string }
	LoggedOut        struct{}
	SessionRestored  struct{ Session models.Session }
	AuthErrorCleared struct{}
)

type (
	PlaylistsPending         struct{}
	PlaylistsLoaded          struct{ Playlists []models.Playlist }
	PlaylistSaved            struct{ Playlist models.Playlist }
	PlaylistDeleted          struct{ ID string }
	PlaylistsFailed          struct{ Message string }
	PlaylistUpdated          struct{ Playlist models.Playlist }
	CurrentPlaylistSet       struct{ Playlist models.Playlist }
	CurrentPlaylistCleared   struct{}
	PlaylistValidationFailed struct{ Message string }
	PlaylistsErrorCleared    struct{}
)

type (
	PopularPending      struct{}
	PopularLoaded       struct{ Tracks []models.Track }
	PopularFailed       struct{ Message string }
	SearchPending       struct{}
	SearchLoaded        struct{ Tracks []models.Track }
	SearchFailed        struct{ Message string }
	SearchCleared       struct{}
	CurrentTrackSet     struct{ Track models.Track }
	CurrentTrackCleared struct{}
	TracksErrorCleared  struct{}
)

func (LoginStarted) isAction()             {}
func (LoginSucceeded) isAction()           {}
func (LoginFailed) isAction()              {}
func (LoggedOut) isAction()                {}
func (SessionRestored) isAction()          {}
func (AuthErrorCleared) isAction()         {}
func (PlaylistsPending) isAction()         {}
func (PlaylistsLoaded) isAction()          {}
func (PlaylistSaved) isAction()            {}
func (PlaylistDeleted) isAction()          {}
func (PlaylistsFailed) isAction()          {}
func (PlaylistUpdated) isAction()          {}
func (CurrentPlaylistSet) isAction()       {}
func (CurrentPlaylistCleared) isAction()   {}
func (PlaylistValidationFailed) isAction() {}
func (PlaylistsErrorCleared) isAction()    {}
func (PopularPending) isAction()           {}
func (PopularLoaded) isAction()            {}
func (PopularFailed) isAction()            {}
func (SearchPending) isAction()            {}
func (SearchLoaded) isAction()             {}
func (SearchFailed) isAction()             {}
func (SearchCleared) isAction()            {}
func (CurrentTrackSet) isAction()          {}
func (CurrentTrackCleared) isAction()      {}
func (TracksErrorCleared) isAction()       {}

// Reduce returns the snapshot that results from applying a to s. It never mutates s.
//
// A new login, a failed login or a logout also resets the playlist view and the track selections, so nothing
// from the previous user stays visible.
func Reduce(s Snapshot, a Action) Snapshot {
	switch a.(type) {
	case LoginSucceeded, LoginFailed, LoggedOut:
		s.Playlists = PlaylistsState{Playlists: []models.Playlist{}}
		s.Tracks.Results = nil
		s.Tracks.Current = nil
		s.Tracks.SearchPending = false
	}

	s.Auth = ReduceAuth(s.Auth, a)
	s.Playlists = ReducePlaylists(s.Playlists, a)
	s.Tracks = ReduceTracks(s.Tracks, a)
	return s
}

// ReduceAuth applies the auth transitions and ignores other actions.
func ReduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case LoginStarted:
		s.Pending = true
		s.Error = ""
	case LoginSucceeded:
		session := a.Session
		return AuthState{Authenticated: true, Session: &session}
	case SessionRestored:
		session := a.Session
		return AuthState{Authenticated: true, Session: &session}
	case LoginFailed:
		return AuthState{Error: a.Message}
	case LoggedOut:
		return AuthState{}
	case AuthErrorCleared:
		s.Error = ""
	}
	return s
}

// ReducePlaylists applies the playlist transitions and ignores other actions.
func ReducePlaylists(s PlaylistsState, a Action) PlaylistsState {
	switch a := a.(type) {
	case PlaylistsPending:
		s.Pending = true
		s.Error = ""
	case PlaylistsLoaded:
		s.Pending = false
		s.Playlists = clonePlaylists(a.Playlists)
		s.Current = refreshCurrent(s.Current, s.Playlists)
	case PlaylistSaved:
		s.Pending = false
		s.Playlists = upsert(s.Playlists, a.Playlist)
		s.Current = refreshCurrent(s.Current, s.Playlists)
	case PlaylistUpdated:
		if models.IndexOf(s.Playlists, a.Playlist.ID) < 0 {
			return s
		}
		s.Playlists = upsert(s.Playlists, a.Playlist)
		s.Current = refreshCurrent(s.Current, s.Playlists)
	case PlaylistDeleted:
		s.Pending = false
		s.Playlists = slices.DeleteFunc(slices.Clone(s.Playlists), func(p models.Playlist) bool { return p.ID == a.ID })
		if s.Current != nil && s.Current.ID == a.ID {
			s.Current = nil
		}
	case PlaylistsFailed:
		s.Pending = false
		s.Error = a.Message
	case CurrentPlaylistSet:
		p := a.Playlist.Clone()
		s.Current = &p
	case CurrentPlaylistCleared:
		s.Current = nil
	case PlaylistValidationFailed:
		s.ValidationError = a.Message
	case PlaylistsErrorCleared:
		s.Error = ""
		s.ValidationError = ""
	}
	return s
}

// ReduceTracks applies the track transitions and ignores other actions.
func ReduceTracks(s TracksState, a Action) TracksState {
	switch a := a.(type) {
	case PopularPending:
		s.PopularPending = true
		s.Error = ""
	case PopularLoaded:
		s.PopularPending = false
		s.Popular = slices.Clone(a.Tracks)
	case PopularFailed:
		s.PopularPending = false
		s.Error = a.Message
	case SearchPending:
		s.SearchPending = true
		s.Error = ""
		s.Results = nil
	case SearchLoaded:
		s.SearchPending = false
		s.Results = slices.Clone(a.Tracks)
	case SearchFailed:
		s.SearchPending = false
		s.Error = a.Message
	case SearchCleared:
		s.SearchPending = false
		s.Results = nil
	case CurrentTrackSet:
		t := a.Track
		s.Current = &t
	case CurrentTrackCleared:
		s.Current = nil
	case TracksErrorCleared:
		s.Error = ""
	}
	return s
}

// upsert replaces p in place, keeping its position, or appends it.
func upsert(all []models.Playlist, p models.Playlist) []models.Playlist {
	out := slices.Clone(all)
	if i := models.IndexOf(out, p.ID); i >= 0 {
		out[i] = p.Clone()
		return out
	}
	return append(out, p.Clone())
}

// refreshCurrent points the open playlist at its latest version in all, when it is there.
func refreshCurrent(current *models.Playlist, all []models.Playlist) *models.Playlist {
	if current == nil {
		return nil
	}
	i := models.IndexOf(all, current.ID)
	if i < 0 {
		return current
	}
	p := all[i].Clone()
	return &p
}

func clonePlaylists(all []models.Playlist) []models.Playlist {
	out := make([]models.Playlist, len(all))
	for i, p := range all {
		out[i] = p.Clone()
	}
	return out
}
