package service

import (
	"context"
	"errors"
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

// Logout ends the calling session: the session is revoked, its refresh
// tokens are destroyed, and the current access token joins the
// revocation list. Logging out twice is fine; a session that is
// already gone counts as logged out.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "session ID is required")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "logout failed")
	}

	return s.endSession(ctx, session, requesttime.Now(ctx), metrics.TriggerLogout)
}

// RevokeSession ends one of the student's other sessions, picked from
// the session listing. A session that does not exist and a session
// that belongs to someone else get the same answer.
func (s *Service) RevokeSession(ctx context.Context, studentID id.StudentID, sessionID id.SessionID) error {
	if studentID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "session ID is required")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.StudentID != studentID {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}

	return s.endSession(ctx, session, requesttime.Now(ctx), metrics.TriggerRevoke)
}

// endSession revokes the session, destroys its refresh tokens, and
// revokes its last access token. Token cleanup failures are logged,
// not returned: once the session row is revoked nothing can rotate
// those tokens again.
func (s *Service) endSession(ctx context.Context, session *models.Session, now time.Time, trigger string) error {
	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}

	s.revokeAccessToken(ctx, session.LastAccessTokenJTI)
	if err := s.refreshTokens.DeleteBySessionID(ctx, session.ID); err != nil && !errors.Is(err, refreshtoken.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to delete session refresh tokens",
			"error", err, "session_id", session.ID.String())
	}

	s.logAudit(ctx, string(audit.EventSessionRevoked),
		"student_id", session.StudentID.String(),
		"session_id", session.ID.String(),
		"trigger", trigger)
	if s.metrics != nil {
		s.metrics.RecordSessionRevoked(trigger)
	}
	return nil
}
