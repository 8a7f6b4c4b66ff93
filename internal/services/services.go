// package services defines the external collaborators of the state store: the remote track source and the credential check
package services

import (
	"context"

	"github.com/desertthunder/spotifsc/internal/models"
)

// TrackSource looks up track metadata. Implementations never fail: errors degrade to an empty (or fallback) result.
type TrackSource interface {
	// SearchExact returns tracks matching artist and title exactly. Blank inputs yield an empty result without network I/O.
	SearchExact(ctx context.Context, artist, title string) []models.Track

	// FetchPopular returns a capped, ordered selection of top tracks from a fixed artist roster.
	FetchPopular(ctx context.Context) []models.Track
}

// CredentialChecker decides whether an email/password pair may log in.
//
// A rejected pair returns an error wrapping [shared.ErrInvalidCredentials].
type CredentialChecker interface {
	Check(ctx context.Context, email, password string) error
}
