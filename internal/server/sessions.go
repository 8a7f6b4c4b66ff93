package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotifsc/internal/repositories"
	"github.com/desertthunder/spotifsc/internal/services"
	"github.com/desertthunder/spotifsc/internal/shared"
	"github.com/desertthunder/spotifsc/internal/state"
	"github.com/google/uuid"
)

// SessionCookie names the cookie holding the browser session id.
const SessionCookie = "spotifsc_session"

// StoreDeps are the dependencies shared by every session's store.
type StoreDeps struct {
	Durable state.PlaylistRepository
	Source  services.TrackSource
	Checker services.CredentialChecker
	Policy  *shared.PasswordPolicy
	Logger  *log.Logger
	Clock   func() time.Time
}

type browserSession struct {
	store    *state.Store
	lastSeen time.Time
}

// SessionRegistry maps session cookies to per-browser stores.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*browserSession
	deps     StoreDeps
	ttl      time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// NewSessionRegistry creates an empty registry whose sessions expire after ttl without a request.
func NewSessionRegistry(deps StoreDeps, ttl time.Duration) *SessionRegistry {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(nil)
	}
	return &SessionRegistry{
		sessions: make(map[string]*browserSession),
		deps:     deps,
		ttl:      ttl,
		now:      deps.Clock,
		logger:   shared.WithLogger(deps.Logger, "component", "sessions"),
	}
}

// Lookup returns the store for the request's session cookie and marks the session as active.
func (reg *SessionRegistry) Lookup(r *http.Request) (*state.Store, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	sess, ok := reg.sessions[c.Value]
	if !ok {
		return nil, false
	}
	sess.lastSeen = reg.now()
	return sess.store, true
}

// LookupOrStart returns the request's store, starting a new session and setting its cookie if there is none.
func (reg *SessionRegistry) LookupOrStart(w http.ResponseWriter, r *http.Request) *state.Store {
	if store, ok := reg.Lookup(r); ok {
		return store
	}

	id := uuid.NewString()
	store := state.NewStore(state.StoreOpts{
		Durable:   reg.deps.Durable,
		Ephemeral: repositories.NewEphemeralStore(repositories.NewMemoryKV(), reg.deps.Logger),
		Source:    reg.deps.Source,
		Checker:   reg.deps.Checker,
		Policy:    reg.deps.Policy,
		Logger:    shared.WithLogger(reg.deps.Logger, "session", id[:8]),
		Clock:     reg.deps.Clock,
	})

	reg.mu.Lock()
	reg.sessions[id] = &browserSession{store: store, lastSeen: reg.now()}
	reg.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(reg.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	reg.logger.Debug("session started", "id", id)
	return store
}

// End drops the request's session and expires its cookie.
func (reg *SessionRegistry) End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		reg.mu.Lock()
		delete(reg.sessions, c.Value)
		reg.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

// Sweep logs out and removes every session idle for longer than the TTL. It returns how many were removed.
func (reg *SessionRegistry) Sweep() int {
	cutoff := reg.now().Add(-reg.ttl)

	reg.mu.Lock()
	var expired []*state.Store
	for id, sess := range reg.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess.store)
			delete(reg.sessions, id)
		}
	}
	reg.mu.Unlock()

	for _, store := range expired {
		store.Logout()
	}
	if len(expired) > 0 {
		reg.logger.Info("swept idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (reg *SessionRegistry) Run(ctx context.Context) {
	interval := max(reg.ttl/4, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Sweep()
		}
	}
}

// Len is the number of live sessions.
func (reg *SessionRegistry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.sessions)
}
