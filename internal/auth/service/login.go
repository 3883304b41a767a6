package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"gradus/internal/auth/device"
	"gradus/internal/auth/metrics"
	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
	"gradus/pkg/requestcontext"
	"gradus/pkg/secrets"
)

// Login verifies the credentials and opens a new session for the
// calling device. Unknown emails and wrong passwords are answered
// identically so the endpoint cannot be used to probe for accounts.
// The device display name comes from the User-Agent captured by the
// metadata middleware.
func (s *Service) Login(ctx context.Context, email, password string) (*models.TokenResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "password is required")
	}

	student, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.authFailure(ctx, "unknown_email", false, "email", email)
			s.recordLogin(metrics.OutcomeInvalidCredentials)
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
		}
		s.authFailure(ctx, "directory_error", true, "email", email)
		s.recordLogin(metrics.OutcomeError)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}

	if err := secrets.Verify(password, student.PasswordHash); err != nil {
		s.authFailure(ctx, "wrong_password", false, "student_id", student.ID.String())
		s.recordLogin(metrics.OutcomeInvalidCredentials)
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid email or password")
	}

	now := requesttime.Now(ctx)
	deviceName := device.ParseUserAgent(requestcontext.UserAgent(ctx))
	session, err := models.NewSession(id.SessionID(uuid.New()), student.ID, deviceName, now, s.sessionTTL)
	if err != nil {
		s.recordLogin(metrics.OutcomeError)
		return nil, err
	}

	artifacts, err := s.generateArtifacts(ctx, student.ID, session.ID, student.Email, now)
	if err != nil {
		s.authFailure(ctx, "token_generation_error", true, "student_id", student.ID.String())
		s.recordLogin(metrics.OutcomeError)
		return nil, err
	}
	session.LastAccessTokenJTI = artifacts.jti

	if err := s.sessions.Create(ctx, session); err != nil {
		s.authFailure(ctx, "store_error", true, "student_id", student.ID.String())
		s.recordLogin(metrics.OutcomeError)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}
	if err := s.refreshTokens.Create(ctx, artifacts.record); err != nil {
		// A session without a refresh token is unusable; end it rather
		// than leave it in the listing.
		_ = s.sessions.Revoke(ctx, session.ID, now)
		s.authFailure(ctx, "store_error", true, "student_id", student.ID.String())
		s.recordLogin(metrics.OutcomeError)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "login failed")
	}

	s.logAudit(ctx, string(audit.EventSessionCreated),
		"student_id", student.ID.String(),
		"session_id", session.ID.String(),
		"device", deviceName)
	s.recordLogin(metrics.OutcomeSuccess)

	return s.tokenResult(artifacts), nil
}

func (s *Service) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}
