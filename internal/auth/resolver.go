package auth

import (
	"errors"
	"time"
)

// Resolver rejection reasons, in addition to the codec errors.
var (
	ErrNoToken = errors.New("no token")
	ErrRevoked = errors.New("token revoked")
)

// Resolver decides who the caller is for a single request. It is the only
// authority combining the token codec and the revocation store; handlers
// must not re-implement either check.
type Resolver struct {
	Secret    string
	Blacklist *Blacklist
}

// NewResolver builds a Resolver around the shared blacklist.
func NewResolver(secret string, bl *Blacklist) *Resolver {
	return &Resolver{Secret: secret, Blacklist: bl}
}

// Resolve maps a raw token to its subject. An absent token yields ErrNoToken.
// Revocation is checked before signature verification so a revoked token is
// rejected even while still cryptographically valid; verification failures
// reject regardless of revocation status.
func (r *Resolver) Resolve(rawToken string, now time.Time) (string, error) {
	if rawToken == "" {
		return "", ErrNoToken
	}
	if r.Blacklist.IsRevoked(rawToken, now) {
		return "", ErrRevoked
	}
	claims, err := VerifyToken(r.Secret, rawToken)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
