package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
)

// InMemory stores sessions in memory for the demo environment and tests.
type InMemory struct {
	mu       sync.Mutex
	sessions map[id.SessionID]models.Session
}

// NewInMemory creates an in-memory session store.
func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[id.SessionID]models.Session)}
}

// Create adds a new session, failing if the ID is already taken.
func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session id must be unique: %w", ErrAlreadyExists)
	}
	s.sessions[session.ID] = *session
	return nil
}

// FindByID retrieves a session by ID regardless of its state.
func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		return &session, nil
	}
	return nil, fmt.Errorf("session not found: %w", ErrNotFound)
}

// ListByStudent returns every session belonging to the student, newest
// activity first. Revoked and expired sessions are included; callers
// filter for their view.
func (s *InMemory) ListByStudent(_ context.Context, studentID id.StudentID) ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions := make([]models.Session, 0)
	for _, session := range s.sessions {
		if session.StudentID == studentID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastSeenAt.After(sessions[j].LastSeenAt)
	})
	return sessions, nil
}

// AdvanceRefresh records a token rotation on the session in one atomic
// step. Revoked and expired sessions fail with their sentinel so a
// rotation can never touch a session that ended underneath it.
func (s *InMemory) AdvanceRefresh(_ context.Context, sessionID id.SessionID, at time.Time, jti string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %w", ErrNotFound)
	}
	if session.IsRevoked() {
		return nil, fmt.Errorf("session revoked: %w", ErrRevoked)
	}
	if !session.IsActive(at) {
		return nil, fmt.Errorf("session expired: %w", ErrExpired)
	}

	session.RecordRefresh(at, jti)
	s.sessions[sessionID] = session
	return &session, nil
}

// Revoke ends the session. Revoking an already-revoked session is a
// no-op success; only unknown sessions fail.
func (s *InMemory) Revoke(_ context.Context, sessionID id.SessionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %w", ErrNotFound)
	}
	session.Revoke(at)
	s.sessions[sessionID] = session
	return nil
}

// DeleteExpiredSessions removes sessions past their lifetime and reports
// how many were deleted.
func (s *InMemory) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for sessionID, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, sessionID)
			deleted++
		}
	}
	return deleted, nil
}
