package auth

import (
	"sync"
	"time"
)

// Blacklist is the process-wide registry of revoked tokens. Entries pair a
// raw token string with the moment its revocation stops mattering (the
// token's own expiry). The store is shared by the gate middleware and the
// logout/admin handlers, so all access goes through the mutex.
type Blacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time // token -> revoked-until
}

// NewBlacklist creates an empty revocation store.
func NewBlacklist() *Blacklist {
	return &Blacklist{revoked: make(map[string]time.Time)}
}

// Revoke marks a token revoked until expiresAt. Idempotent: revoking an
// already-present token keeps the original entry. Expired entries are
// pruned on each insert so sustained logout traffic stays bounded.
func (b *Blacklist) Revoke(token string, expiresAt time.Time) {
	if token == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for t, until := range b.revoked {
		if !until.After(now) {
			delete(b.revoked, t)
		}
	}

	if _, ok := b.revoked[token]; !ok {
		b.revoked[token] = expiresAt
	}
}

// IsRevoked reports whether the exact token string has a live revocation
// entry. Entries whose revoked-until time has passed count as not revoked
// even if not yet pruned.
func (b *Blacklist) IsRevoked(token string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.revoked[token]
	return ok && until.After(now)
}

// Clear wipes every entry regardless of expiry.
func (b *Blacklist) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked = make(map[string]time.Time)
}

// Len returns the number of stored entries, live or stale.
func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.revoked)
}
