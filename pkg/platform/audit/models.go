package audit

import (
	"time"

	id "gradus/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	StudentID id.StudentID
	Subject   string
	Action    string
	Outcome   string
	Reason    string
	// Enrichment fields for audit trail completeness
	Email     string // Student email when available (e.g., during login)
	RequestID string // Correlation ID from HTTP request context
	ActorID   string // Acting principal when distinct from the student (admin operations)
}

type AuditEvent string

const (
	EventStudentRegistered   AuditEvent = "student_registered"
	EventRecordUpdated       AuditEvent = "record_updated"
	EventGraduationEvaluated AuditEvent = "graduation_evaluated"
	EventSessionCreated      AuditEvent = "session_created"
	EventSessionRevoked      AuditEvent = "session_revoked"
	EventSessionsRevoked     AuditEvent = "sessions_revoked"
	EventTokenRefreshed      AuditEvent = "token_refreshed"
	EventTokenReuseDetected  AuditEvent = "token_reuse_detected"
	EventAuthFailed          AuditEvent = "auth_failed"
	EventRateLimitExceeded   AuditEvent = "rate_limit_exceeded"
	EventCourseUpserted      AuditEvent = "course_upserted"
	EventCourseRemoved       AuditEvent = "course_removed"
	EventTimetableCreated    AuditEvent = "timetable_created"
	EventTimetableUpdated    AuditEvent = "timetable_updated"
	EventTimetableDeleted    AuditEvent = "timetable_deleted"
)

// EventCategory routes events to retention and alerting policies.
type EventCategory string

const (
	// CategoryCompliance covers events that change or derive from the
	// academic record itself. These must never be lost.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers authentication and abuse signals.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity kept for troubleshooting.
	CategoryOperations EventCategory = "operations"
)

// Category maps an event type to its category. Unknown events fall back to
// CategoryOperations so a miscategorized event is stored rather than lost.
func (e AuditEvent) Category() EventCategory {
	switch e {
	case EventStudentRegistered, EventRecordUpdated, EventGraduationEvaluated:
		return CategoryCompliance
	case EventAuthFailed, EventSessionRevoked, EventSessionsRevoked,
		EventTokenReuseDetected, EventRateLimitExceeded:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}
