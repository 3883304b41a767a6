// Package models contains the authentication domain: login sessions,
// rotating refresh tokens, and the token bundle handed to clients.
// Entities here are transport-agnostic; JSON shapes live in responses.go.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// SessionStatus represents whether a session can still mint tokens.
type SessionStatus string

const (
	SessionStatusActive  SessionStatus = "active"
	SessionStatusRevoked SessionStatus = "revoked"
)

// Session is one authenticated device's standing with the service. A
// session is created at login, advanced on every refresh, and ends by
// logout, revocation, or expiry.
type Session struct {
	ID                id.SessionID
	StudentID         id.StudentID
	Status            SessionStatus
	DeviceDisplayName string
	// LastAccessTokenJTI identifies the most recently issued access token
	// so logout and reuse handling can revoke it before it expires.
	LastAccessTokenJTI string
	CreatedAt          time.Time
	ExpiresAt          time.Time
	LastSeenAt         time.Time
	LastRefreshedAt    *time.Time
	RevokedAt          *time.Time
}

func (s *Session) IsRevoked() bool {
	return s.Status == SessionStatusRevoked
}

// IsActive reports whether the session can still be used at the given
// instant. Both revocation and expiry end a session.
func (s *Session) IsActive(now time.Time) bool {
	return s.Status == SessionStatusActive && now.Before(s.ExpiresAt)
}

// Revoke transitions the session to revoked state.
// Returns true if the transition occurred, false if already revoked.
func (s *Session) Revoke(at time.Time) bool {
	if s.Status == SessionStatusRevoked {
		return false
	}
	s.Status = SessionStatusRevoked
	s.RevokedAt = &at
	return true
}

// RecordActivity moves the last-seen marker forward. Stale timestamps
// from delayed requests never move it backwards.
func (s *Session) RecordActivity(at time.Time) {
	if at.After(s.LastSeenAt) {
		s.LastSeenAt = at
	}
}

// RecordRefresh notes a successful token rotation and the JTI of the
// access token that replaced the previous one.
func (s *Session) RecordRefresh(at time.Time, jti string) {
	s.LastRefreshedAt = &at
	s.LastAccessTokenJTI = jti
	s.RecordActivity(at)
}

// NewSession constructs an active Session and enforces basic invariants.
func NewSession(sessionID id.SessionID, studentID id.StudentID, deviceName string, createdAt time.Time, ttl time.Duration) (*Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session id cannot be nil")
	}
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session student id cannot be nil")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session ttl must be positive")
	}
	return &Session{
		ID:                sessionID,
		StudentID:         studentID,
		Status:            SessionStatusActive,
		DeviceDisplayName: deviceName,
		CreatedAt:         createdAt,
		ExpiresAt:         createdAt.Add(ttl),
		LastSeenAt:        createdAt,
	}, nil
}

// RefreshTokenRecord is the stored side of a refresh token. Only the
// SHA-256 hash of the opaque token is persisted; presenting the raw
// token is the proof of possession.
type RefreshTokenRecord struct {
	TokenHash       string
	SessionID       id.SessionID
	ExpiresAt       time.Time
	Used            bool
	LastRefreshedAt *time.Time
	CreatedAt       time.Time
}

// IsExpired reports whether the token is past its lifetime.
func (r *RefreshTokenRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// HashToken derives the storage key for a raw refresh token. A database
// leak must not hand out usable tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenResult is the bundle returned by login and refresh: a short-lived
// JWT access token plus the single-use refresh token that replaces it.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int
}

// SessionSummary is the read model for the session listing. It carries
// no token material.
type SessionSummary struct {
	SessionID    id.SessionID
	Device       string
	CreatedAt    time.Time
	LastActivity time.Time
	IsCurrent    bool
}
