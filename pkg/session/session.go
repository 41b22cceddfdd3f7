// Package session keeps each visitor's wizard state between requests,
// keyed by a random id carried in a browser-session cookie.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
)

// CookieName is the cookie holding the session id.
const CookieName = "funnel_sid"

// ErrNotFound is returned when a session is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Store persists wizard state per session id.
type Store interface {
	Load(ctx context.Context, id string) (*funnel.State, error)
	Save(ctx context.Context, id string, state *funnel.State) error
	// Delete drops a session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
