package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotifsc/internal/models"
	"github.com/desertthunder/spotifsc/internal/shared"
)

// BeginLogin marks a login attempt as in progress.
func (s *Store) BeginLogin() {
	s.dispatch(LoginStarted{})
}

// LoginSucceeded records session as the logged-in user and persists it to the ephemeral tier with the login time.
//
// The id is always recomputed from the email, whatever the caller passed. A zero LoginAt is set to now.
// A [Store.Login] still in flight is superseded.
func (s *Store) LoginSucceeded(session models.Session) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginSucceeded(session)
}

func (s *Store) loginSucceeded(session models.Session) models.Session {
	session.Email = shared.NormalizeEmail(session.Email)
	session.ID = shared.StableUserID(session.Email)
	if session.LoginAt.IsZero() {
		session.LoginAt = s.now()
	}

	s.gen.auth++
	s.gen.playlists++
	s.gen.search++
	s.dropLoad()
	s.ephemeral.SaveSession(session)
	s.ephemeral.SaveLoginTimestamp(session.LoginAt)
	s.apply(LoginSucceeded{Session: session})
	s.logger.Info("login succeeded", "user", session.ID)
	return session
}

// LoginFailed ends a login attempt with message. Whatever the previous user had in view is dropped.
func (s *Store) LoginFailed(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginFailed(message)
}

func (s *Store) loginFailed(message string) {
	s.dropLoad()
	s.apply(LoginFailed{Message: message})
}

// Logout clears the session, the playlist view and the ephemeral tier.
//
// Tasks still in flight for the previous session settle without touching the state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen.auth++
	s.gen.playlists++
	s.gen.search++
	s.dropLoad()
	s.ephemeral.ClearAll()
	s.apply(LoggedOut{})
}

// RestoreSession marks the store authenticated from the ephemeral session snapshot, without re-verifying it.
// It reports whether a session was found.
func (s *Store) RestoreSession() bool {
	session := s.ephemeral.LoadSession()
	if session == nil {
		return false
	}
	s.dispatch(SessionRestored{Session: *session})
	return true
}

// LastLogin returns the login time recorded in the ephemeral tier.
func (s *Store) LastLogin() (time.Time, bool) {
	return s.ephemeral.LoadLoginTimestamp()
}

// ClearAuthError clears the login error.
func (s *Store) ClearAuthError() {
	s.dispatch(AuthErrorCleared{})
}

// Login validates the form, then checks the credentials asynchronously.
//
// Validation failures return a [*shared.ValidationError] and dispatch nothing. Otherwise the
// returned task settles with the new session, or fails with [shared.ErrInvalidCredentials]
// after the auth error has been set.
func (s *Store) Login(ctx context.Context, email, password string) (*Task[models.Session], error) {
	if msgs := shared.ValidateLogin(email, password, s.policy); len(msgs) > 0 {
		return nil, shared.NewValidationError(msgs...)
	}
	if s.checker == nil {
		return nil, fmt.Errorf("%w: no credential checker configured", shared.ErrInvalidConfig)
	}

	s.mu.Lock()
	s.gen.auth++
	gen := s.gen.auth
	s.apply(LoginStarted{})
	s.mu.Unlock()

	work := func(ctx context.Context) (models.Session, error) {
		if err := s.checker.Check(ctx, email, password); err != nil {
			return models.Session{}, err
		}
		email := shared.NormalizeEmail(email)
		return models.Session{ID: shared.StableUserID(email), Email: email, LoginAt: s.now()}, nil
	}

	settle := func(session models.Session, err error) bool {
		if gen != s.gen.auth {
			return false
		}
		if err != nil {
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				s.logger.Warn("credential check failed", "err", err)
			}
			s.loginFailed(MsgLoginFailed)
			return true
		}
		s.loginSucceeded(session)
		return true
	}

	t := spawn(s, ctx, "login", work, settle)
	return t, nil
}
