package service

import (
	"context"

	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/middleware/requesttime"
)

// ListSessions returns the student's live sessions, newest activity
// first, with the calling session flagged. Revoked and expired
// sessions are not shown; they are history, not devices to manage.
func (s *Service) ListSessions(ctx context.Context, studentID id.StudentID, currentSessionID id.SessionID) ([]models.SessionSummary, error) {
	if studentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "student ID is required")
	}

	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}

	now := requesttime.Now(ctx)
	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		if !session.IsActive(now) {
			continue
		}
		deviceName := session.DeviceDisplayName
		if deviceName == "" {
			deviceName = "Unknown device"
		}
		summaries = append(summaries, models.SessionSummary{
			SessionID:    session.ID,
			Device:       deviceName,
			CreatedAt:    session.CreatedAt,
			LastActivity: session.LastSeenAt,
			IsCurrent:    session.ID == currentSessionID,
		})
	}
	return summaries, nil
}
