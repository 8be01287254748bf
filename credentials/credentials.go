// Package credentials holds the access/refresh credential pair issued by the
// remote API and the Store contract used to persist it between runs.
package credentials

import (
	"golang.org/x/oauth2"

	"github.com/jrsteele09/agent-console/internal/errors"
)

// Pair is the bearer credential pair issued on login, registration and renewal.
// Both tokens are opaque: the console never parses them, it only checks presence
// and lets the server accept or reject them.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether both halves of the pair are present.
func (p Pair) Valid() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Token converts the pair into an oauth2 bearer token.
func (p Pair) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
}

// FromToken builds a Pair from an oauth2 token.
func FromToken(t *oauth2.Token) Pair {
	if t == nil {
		return Pair{}
	}
	return Pair{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

// Store persists the current credential pair.
//
// Implementations must never expose a partial pair to Load, must treat Clear on
// an empty store as a no-op, and must report unreadable state from Load as
// absent rather than as an error.
type Store interface {
	Save(pair Pair) error
	Load() (Pair, bool)
	Clear() error
}

// CheckPair rejects pairs missing either token. Store implementations call it
// from Save.
func CheckPair(pair Pair) error {
	if !pair.Valid() {
		return errors.ErrIncompletePair
	}
	return nil
}
