package service

import (
	"context"
	"errors"

	"gradus/internal/auth/metrics"
	"gradus/internal/sentinel"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// Refresh error handling: translates store sentinels into domain errors.

// refreshErrorMapping defines how a sentinel error maps to a domain error.
type refreshErrorMapping struct {
	sentinel  error
	code      dErrors.Code
	message   string
	logReason string
}

// refreshErrorMappings defines error translations in priority order.
// First match wins. Every mapped failure answers 401: the client's
// remedy is a fresh login either way, and the messages avoid telling a
// token thief which check caught them. Domain errors pass through
// untouched (see handleRefreshError).
var refreshErrorMappings = []refreshErrorMapping{
	{sentinel.ErrNotFound, dErrors.CodeInvalidToken, "invalid refresh token", "not_found"},
	{sentinel.ErrAlreadyUsed, dErrors.CodeInvalidToken, "invalid refresh token", "already_used"},
	{sentinel.ErrExpired, dErrors.CodeInvalidToken, "refresh token expired", "expired"},
	{sentinel.ErrRevoked, dErrors.CodeInvalidToken, "session has been revoked", "session_revoked"},
}

// handleRefreshError translates dependency errors into domain errors
// and records the failure. Used by every refresh exit except success
// and the reuse path, which has its own handling.
func (s *Service) handleRefreshError(ctx context.Context, err error, sessionID *id.SessionID) error {
	if err == nil {
		return nil
	}

	var attrs []any
	if sessionID != nil {
		attrs = append(attrs, "session_id", sessionID.String())
	}

	translated := err
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		s.authFailure(ctx, string(de.Code), false, attrs...)
	default:
		translated = nil
		for _, m := range refreshErrorMappings {
			if errors.Is(err, m.sentinel) {
				s.authFailure(ctx, m.logReason, false, attrs...)
				translated = dErrors.Wrap(err, m.code, m.message)
				break
			}
		}
		if translated == nil {
			s.authFailure(ctx, "internal_error", true, attrs...)
			translated = dErrors.Wrap(err, dErrors.CodeInternal, "token refresh failed")
		}
	}

	if dErrors.HasCode(translated, dErrors.CodeInternal) {
		s.recordRefresh(metrics.OutcomeError)
	} else {
		s.recordRefresh(metrics.OutcomeInvalidToken)
	}
	return translated
}
