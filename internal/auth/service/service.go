// Package service implements the authentication flows: password login,
// refresh token rotation with reuse detection, logout, and the session
// listing. Store sentinels are translated to domain errors exactly
// once, here.
package service

import (
	"context"
	"log/slog"
	"time"

	"gradus/internal/auth/metrics"
	"gradus/internal/auth/models"
	"gradus/internal/auth/store/revocation"
	studentmodels "gradus/internal/student/models"
	id "gradus/pkg/domain"
	"gradus/pkg/platform/audit"
)

// Default lifetimes. Sessions outlive their refresh tokens: a session
// stays resumable across rotations until it expires or is revoked.
const (
	defaultSessionTTL = 30 * 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// StudentDirectory looks up accounts for credential checks and token
// claims. Satisfied by the student service.
type StudentDirectory interface {
	FindByEmail(ctx context.Context, email string) (*studentmodels.Student, error)
	GetAccount(ctx context.Context, studentID id.StudentID) (*studentmodels.Student, error)
}

// TokenIssuer mints the access and refresh tokens handed to clients.
// Satisfied by the JWT service.
type TokenIssuer interface {
	GenerateAccessTokenWithJTI(ctx context.Context, studentID id.StudentID, sessionID id.SessionID, email string) (string, string, error)
	CreateRefreshToken() (string, error)
	AccessTokenTTL() time.Duration
}

// SessionStore defines the session persistence operations the service needs.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]models.Session, error)
	AdvanceRefresh(ctx context.Context, sessionID id.SessionID, at time.Time, jti string) (*models.Session, error)
	Revoke(ctx context.Context, sessionID id.SessionID, at time.Time) error
}

// RefreshTokenStore defines the token persistence operations the service needs.
type RefreshTokenStore interface {
	Create(ctx context.Context, record *models.RefreshTokenRecord) error
	ConsumeRefreshToken(ctx context.Context, tokenHash string, now time.Time) (*models.RefreshTokenRecord, error)
	DeleteBySessionID(ctx context.Context, sessionID id.SessionID) error
}

// Service is the authentication domain service.
type Service struct {
	directory     StudentDirectory
	tokens        TokenIssuer
	sessions      SessionStore
	refreshTokens RefreshTokenStore
	trl           revocation.TokenRevocationList
	logger        *slog.Logger
	audit         *audit.Logger
	metrics       *metrics.Metrics
	sessionTTL    time.Duration
	refreshTTL    time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditLogger sets the audit logger for session and token events.
func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.audit = a
	}
}

// WithMetrics sets the metrics recorder for auth flows.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRevocationList sets the list logout and reuse handling push
// revoked access-token JTIs to. Without one, revoked sessions keep
// their last access token alive until it expires on its own.
func WithRevocationList(trl revocation.TokenRevocationList) Option {
	return func(s *Service) {
		s.trl = trl
	}
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithRefreshTTL overrides the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// New creates an auth service over the given directory, token issuer,
// and stores. Panics if any is nil - fail fast at startup.
func New(directory StudentDirectory, tokens TokenIssuer, sessions SessionStore, refreshTokens RefreshTokenStore, opts ...Option) *Service {
	if directory == nil {
		panic("auth.New: student directory is required")
	}
	if tokens == nil {
		panic("auth.New: token issuer is required")
	}
	if sessions == nil {
		panic("auth.New: session store is required")
	}
	if refreshTokens == nil {
		panic("auth.New: refresh token store is required")
	}

	s := &Service{
		directory:     directory,
		tokens:        tokens,
		sessions:      sessions,
		refreshTokens: refreshTokens,
		logger:        slog.Default(),
		sessionTTL:    defaultSessionTTL,
		refreshTTL:    defaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authFailure logs a failed auth attempt and records the audit event.
// Internal failures log at error level; expected rejections at warn.
func (s *Service) authFailure(ctx context.Context, reason string, internal bool, attributes ...any) {
	logAttrs := append([]any{"reason", reason}, attributes...)
	if internal {
		s.logger.ErrorContext(ctx, "auth failure", logAttrs...)
	} else {
		s.logger.WarnContext(ctx, "auth failure", logAttrs...)
	}
	s.logAudit(ctx, string(audit.EventAuthFailed), logAttrs...)
}

// revokeAccessToken pushes a JTI to the revocation list for the
// remaining access-token lifetime. Best effort: a failed push is
// logged, not returned, since the session itself is already ended.
func (s *Service) revokeAccessToken(ctx context.Context, jti string) {
	if s.trl == nil || jti == "" {
		return
	}
	if err := s.trl.RevokeToken(ctx, jti, s.tokens.AccessTokenTTL()); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke access token", "error", err, "jti", jti)
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, event, attributes...)
}
