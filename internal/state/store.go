package state

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/services"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// User-facing task failure messages.
const (
	MsgFetchPopular     = "Error fetching popular tracks"
	MsgFetchTrack       = "Error fetching track"
	MsgLoadPlaylists    = "Error loading playlists"
	MsgSavePlaylist     = "Error saving playlist"
	MsgDeletePlaylist   = "Error deleting playlist"
	MsgLoginFailed      = "Incorrect email or password"
	MsgNotAuthenticated = "You need to log in first"
	MsgPlaylistNotFound = "Playlist not found"
)

const subscriberBufferSize = 1

// PlaylistRepository is the durable tier as the store uses it. See [repositories.DurableStore].
type PlaylistRepository interface {
	LoadAll() []models.Playlist
	Update(fn func([]models.Playlist) []models.Playlist) error
}

// SessionRepository is the ephemeral tier as the store uses it. See [repositories.EphemeralStore].
type SessionRepository interface {
	SaveSession(models.Session)
	LoadSession() *models.Session
	SaveLastPlaylistID(string)
	LoadLastPlaylistID() (string, bool)
	ClearLastPlaylistID()
	SaveLoginTimestamp(time.Time)
	LoadLoginTimestamp() (time.Time, bool)
	ClearAll()
}

// StoreOpts configures a [Store]. Durable, Ephemeral and Source are required.
type StoreOpts struct {
	Durable   PlaylistRepository
	Ephemeral SessionRepository
	Source    services.TrackSource
	Checker   services.CredentialChecker
	Policy    *shared.PasswordPolicy
	Logger    *log.Logger
	Clock     func() time.Time
}

// generations numbers each result stream; a task only applies its result if its number is still current.
type generations struct {
	auth      uint64
	playlists uint64
	popular   uint64
	search    uint64
}

// Store is the application state container.
type Store struct {
	mu        sync.Mutex
	state     Snapshot
	gen       generations
	loading   bool
	journal   []Action
	subs      map[int]chan Snapshot
	nextSub   int
	durable   PlaylistRepository
	ephemeral SessionRepository
	source    services.TrackSource
	checker   services.CredentialChecker
	policy    shared.PasswordPolicy
	logger    *log.Logger
	now       func() time.Time
}

// NewStore creates a [Store] in the logged-out state.
func NewStore(opts StoreOpts) *Store {
	s := &Store{
		state:     Snapshot{Playlists: PlaylistsState{Playlists: []models.Playlist{}}},
		subs:      make(map[int]chan Snapshot),
		durable:   opts.Durable,
		ephemeral: opts.Ephemeral,
		source:    opts.Source,
		checker:   opts.Checker,
		logger:    opts.Logger,
		now:       opts.Clock,
		policy:    shared.DefaultPasswordPolicy(),
	}

	if opts.Policy != nil {
		s.policy = *opts.Policy
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Snapshot returns a copy of the current state. Callers may modify it freely.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe returns a channel receiving copies of the current snapshot and every later one, and a function that ends the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBufferSize)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.Clone()
	s.mu.Unlock()

	return ch, sync.OnceFunc(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		close(ch)
	})
}

// dispatch applies a under the store mutex.
func (s *Store) dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(a)
}

// apply reduces a into the state and notifies subscribers. The caller holds s.mu.
func (s *Store) apply(a Action) {
	s.state = Reduce(s.state, a)
	for _, ch := range s.subs {
		publish(ch, s.state.Clone())
	}
}

// publish replaces any undelivered snapshot with snap without blocking.
func publish(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- snap:
	default:
	}
}

// record keeps a playlist edit that settled while a load is in flight, so the load can replay it. The caller holds s.mu.
func (s *Store) record(a Action) {
	if s.loading {
		s.journal = append(s.journal, a)
	}
}

// dropLoad forgets the in-flight load and its edits. The caller holds s.mu.
func (s *Store) dropLoad() {
	s.loading = false
	s.journal = nil
}

func (s *Store) sessionID() string {
	return s.state.SessionID()
}
