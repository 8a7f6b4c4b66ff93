package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotifsc/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// AllowList is a [CredentialChecker] over a fixed set of accounts.
//
// Plaintext passwords from config are hashed with bcrypt at construction and discarded.
// Every check waits for the configured delay first, whatever the outcome.
type AllowList struct {
	hashes map[string][]byte
	delay  time.Duration
}

// NewAllowList hashes each configured password. Emails are matched case-insensitively after trimming.
func NewAllowList(users []shared.UserConfig, delay time.Duration) (*AllowList, error) {
	a := &AllowList{hashes: make(map[string][]byte, len(users)), delay: delay}
	for _, u := range users {
		email := shared.NormalizeEmail(u.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: allow-listed user without email", shared.ErrInvalidConfig)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}
		a.hashes[email] = hash
	}
	return a, nil
}

// NewAllowListFromConfig builds the checker from the [auth] config section.
func NewAllowListFromConfig(cfg shared.AuthConfig) (*AllowList, error) {
	return NewAllowList(cfg.Users, cfg.LoginDelay())
}

// Check returns nil when email/password match an allow-listed account.
func (a *AllowList) Check(ctx context.Context, email, password string) error {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	hash, ok := a.hashes[shared.NormalizeEmail(email)]
	if !ok {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}
