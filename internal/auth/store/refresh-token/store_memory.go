package refreshtoken

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
)

// InMemory stores refresh-token records in memory for the demo
// environment and tests.
type InMemory struct {
	mu     sync.Mutex
	tokens map[string]models.RefreshTokenRecord
}

// NewInMemory creates an in-memory refresh-token store.
func NewInMemory() *InMemory {
	return &InMemory{tokens: make(map[string]models.RefreshTokenRecord)}
}

// Create adds a new record, failing if the token hash is already stored.
func (s *InMemory) Create(_ context.Context, record *models.RefreshTokenRecord) error {
	if record == nil {
		return fmt.Errorf("refresh token record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[record.TokenHash]; exists {
		return fmt.Errorf("refresh token hash must be unique: %w", ErrTokenUsed)
	}
	s.tokens[record.TokenHash] = *record
	return nil
}

// Find retrieves a record by token hash regardless of its state.
func (s *InMemory) Find(_ context.Context, tokenHash string) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.tokens[tokenHash]; ok {
		return &record, nil
	}
	return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
}

// ConsumeRefreshToken marks the token used in one atomic step. Expired
// and already-used tokens fail with their sentinel but still return the
// record, so callers can act on the owning session when a consumed
// token is presented again.
func (s *InMemory) ConsumeRefreshToken(_ context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.tokens[tokenHash]
	if !ok {
		return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
	}
	if record.IsExpired(now) {
		return &record, fmt.Errorf("refresh token expired: %w", ErrTokenExpired)
	}
	if record.Used {
		return &record, fmt.Errorf("refresh token already used: %w", ErrTokenUsed)
	}

	record.Used = true
	record.LastRefreshedAt = &now
	s.tokens[tokenHash] = record
	return &record, nil
}

// DeleteBySessionID removes every token belonging to the session.
func (s *InMemory) DeleteBySessionID(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for hash, record := range s.tokens {
		if record.SessionID == sessionID {
			delete(s.tokens, hash)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no refresh tokens for session: %w", ErrNotFound)
	}
	return nil
}

// DeleteExpiredTokens removes tokens past their lifetime and reports how
// many were deleted.
func (s *InMemory) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for hash, record := range s.tokens {
		if record.IsExpired(now) {
			delete(s.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteUsedTokens removes rotated tokens and reports how many were
// deleted. Used tokens are kept until cleanup so replays inside the
// window are detected as reuse rather than as unknown tokens.
func (s *InMemory) DeleteUsedTokens(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for hash, record := range s.tokens {
		if record.Used {
			delete(s.tokens, hash)
			deleted++
		}
	}
	return deleted, nil
}
