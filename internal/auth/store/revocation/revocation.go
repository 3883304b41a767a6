// Package revocation tracks revoked access-token JTIs until the tokens
// would have expired on their own. Logout and reuse handling write here;
// the auth middleware reads on every protected request.
package revocation

import (
	"context"
	"sync"
	"time"
)

// TokenRevocationList manages revoked access tokens by JTI. Entries
// carry a TTL matching the remaining token lifetime; past it the JWT
// expiry check takes over. Implementations satisfy the middleware's
// TokenRevocationChecker.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// InMemoryTRL is an in-memory revocation list for the demo environment
// and tests. Expired entries linger until the cleanup worker sweeps
// them; IsTokenRevoked never reports them as revoked.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

// NewInMemoryTRL creates an in-memory token revocation list.
func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{revoked: make(map[string]time.Time)}
}

// RevokeToken adds a JTI to the revocation list with the given TTL.
func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsTokenRevoked checks whether a JTI is revoked and still inside its
// revocation window.
func (t *InMemoryTRL) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	expiry, exists := t.revoked[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		return false, nil
	}
	return true, nil
}

// DeleteExpired removes entries whose revocation window has passed and
// reports how many were deleted.
func (t *InMemoryTRL) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	deleted := 0
	for jti, expiry := range t.revoked {
		if now.After(expiry) {
			delete(t.revoked, jti)
			deleted++
		}
	}
	return deleted, nil
}
