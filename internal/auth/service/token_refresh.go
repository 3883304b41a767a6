package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gradus/internal/auth/metrics"
	"gradus/internal/auth/models"
	refreshtoken "gradus/internal/auth/store/refresh-token"
	sessionstore "gradus/internal/auth/store/session"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
)

// tokenArtifacts is everything a token hand-out produces: the signed
// access token with its JTI, plus the replacement refresh token in raw
// and storable form. Generated up front so store writes stay short.
type tokenArtifacts struct {
	accessToken  string
	jti          string
	refreshToken string
	record       *models.RefreshTokenRecord
}

func (s *Service) generateArtifacts(ctx context.Context, studentID id.StudentID, sessionID id.SessionID, email string, now time.Time) (*tokenArtifacts, error) {
	accessToken, jti, err := s.tokens.GenerateAccessTokenWithJTI(ctx, studentID, sessionID, email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}
	refreshToken, err := s.tokens.CreateRefreshToken()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate refresh token")
	}
	return &tokenArtifacts{
		accessToken:  accessToken,
		jti:          jti,
		refreshToken: refreshToken,
		record: &models.RefreshTokenRecord{
			TokenHash: models.HashToken(refreshToken),
			SessionID: sessionID,
			ExpiresAt: now.Add(s.refreshTTL),
			CreatedAt: now,
		},
	}, nil
}

func (s *Service) tokenResult(artifacts *tokenArtifacts) *models.TokenResult {
	return &models.TokenResult{
		AccessToken:  artifacts.accessToken,
		RefreshToken: artifacts.refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenTTL().Seconds()),
	}
}

// Refresh exchanges a refresh token for a fresh token pair. Each token
// is single use: consuming it burns it, and the reply carries its
// replacement. Presenting a burned token again is treated as theft and
// ends the whole session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "refresh_token is required")
	}

	now := requesttime.Now(ctx)
	record, err := s.refreshTokens.ConsumeRefreshToken(ctx, models.HashToken(refreshToken), now)
	if err != nil {
		if errors.Is(err, refreshtoken.ErrTokenUsed) && record != nil {
			return nil, s.handleTokenReuse(ctx, record, now)
		}
		return nil, s.handleRefreshError(ctx, err, nil)
	}

	session, err := s.sessions.FindByID(ctx, record.SessionID)
	if err != nil {
		return nil, s.handleRefreshError(ctx, err, &record.SessionID)
	}

	student, err := s.directory.GetAccount(ctx, session.StudentID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// The account was removed while the session lived on.
			s.authFailure(ctx, "account_missing", false, "session_id", session.ID.String())
			s.recordRefresh(metrics.OutcomeInvalidToken)
			return nil, dErrors.New(dErrors.CodeInvalidToken, "invalid refresh token")
		}
		return nil, s.handleRefreshError(ctx, err, &session.ID)
	}

	artifacts, err := s.generateArtifacts(ctx, session.StudentID, session.ID, student.Email, now)
	if err != nil {
		return nil, s.handleRefreshError(ctx, err, &session.ID)
	}

	if _, err := s.sessions.AdvanceRefresh(ctx, session.ID, now, artifacts.jti); err != nil {
		return nil, s.handleRefreshError(ctx, err, &session.ID)
	}
	if err := s.refreshTokens.Create(ctx, artifacts.record); err != nil {
		return nil, s.handleRefreshError(ctx, err, &session.ID)
	}

	s.logAudit(ctx, string(audit.EventTokenRefreshed),
		"student_id", session.StudentID.String(),
		"session_id", session.ID.String())
	s.recordRefresh(metrics.OutcomeSuccess)

	return s.tokenResult(artifacts), nil
}

// handleTokenReuse treats a burned token presented again as a stolen
// token: someone holds a credential that was already rotated away. The
// whole session ends, its remaining tokens are destroyed, and the last
// access token is revoked so the thief cannot ride out its lifetime.
// The caller gets the same answer as for any bad token; only the audit
// trail records what actually happened.
func (s *Service) handleTokenReuse(ctx context.Context, record *models.RefreshTokenRecord, now time.Time) error {
	attrs := []any{"session_id", record.SessionID.String()}

	if session, err := s.sessions.FindByID(ctx, record.SessionID); err == nil {
		attrs = append(attrs, "student_id", session.StudentID.String())
		s.revokeAccessToken(ctx, session.LastAccessTokenJTI)
	}

	if err := s.sessions.Revoke(ctx, record.SessionID, now); err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to revoke session after token reuse", append([]any{"error", err}, attrs...)...)
	}
	if err := s.refreshTokens.DeleteBySessionID(ctx, record.SessionID); err != nil && !errors.Is(err, refreshtoken.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to delete tokens after token reuse", append([]any{"error", err}, attrs...)...)
	}

	s.logger.WarnContext(ctx, "refresh token reuse detected", attrs...)
	s.logAudit(ctx, string(audit.EventTokenReuseDetected), attrs...)
	if s.metrics != nil {
		s.metrics.RecordReuseDetected()
		s.metrics.RecordRefresh(metrics.OutcomeReuseDetected)
		s.metrics.RecordSessionRevoked(metrics.TriggerReuse)
	}

	return dErrors.New(dErrors.CodeInvalidToken, "invalid refresh token")
}

func (s *Service) recordRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRefresh(outcome)
	}
}
