package http

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoIdentity is returned when a request carries no usable player identity.
var ErrNoIdentity = errors.New("no player identity in request")

// Identity is the player identity resolved from an incoming request.
type Identity struct {
	PlayerID    string
	DisplayName string
}

// IdentityResolver maps an incoming request to a player identity.
// Production deployments sit behind a gateway that authenticates the
// player and forwards the identity in headers.
type IdentityResolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// HeaderIdentityResolver reads the identity from X-Player-ID and
// X-Player-Name headers, falling back to a bearer token subject carried
// verbatim in Authorization.
type HeaderIdentityResolver struct{}

// Resolve implements IdentityResolver.
func (HeaderIdentityResolver) Resolve(r *http.Request) (Identity, error) {
	playerID := strings.TrimSpace(r.Header.Get("X-Player-ID"))

	if playerID == "" {
		auth := r.Header.Get("Authorization")
		if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
			playerID = strings.TrimSpace(after)
		}
	}

	if playerID == "" {
		return Identity{}, ErrNoIdentity
	}

	return Identity{
		PlayerID:    playerID,
		DisplayName: strings.TrimSpace(r.Header.Get("X-Player-Name")),
	}, nil
}
