package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	id "gradus/pkg/domain"
	audit "gradus/pkg/platform/audit"
)

// EventStore adapts the outbox into an audit.Store. Writes stage the event
// in the outbox table; the worker publishes it to Kafka and the consumer
// lands it in audit_events. Reads are delegated to the terminal store so
// callers see published history, not the staging queue.
type EventStore struct {
	outbox Store
	reads  audit.Store
}

// NewEventStore creates an outbox-backed audit store. reads may be nil when
// the deployment never queries audit history through this path.
func NewEventStore(outbox Store, reads audit.Store) *EventStore {
	return &EventStore{outbox: outbox, reads: reads}
}

// wireEvent is the JSON payload staged for Kafka. The field names are the
// contract with the consumer handler; keep them in sync.
type wireEvent struct {
	ID        string
	Category  string
	Timestamp time.Time
	StudentID string
	Subject   string
	Action    string
	Outcome   string
	Reason    string
	Email     string
	RequestID string
	ActorID   string
}

func (s *EventStore) Append(ctx context.Context, event audit.Event) error {
	entry := NewEntry(aggregateTypeFor(event), aggregateIDFor(event), event.Action, nil)

	wire := wireEvent{
		ID:        entry.ID.String(),
		Category:  string(event.Category),
		Timestamp: event.Timestamp,
		Subject:   event.Subject,
		Action:    event.Action,
		Outcome:   event.Outcome,
		Reason:    event.Reason,
		Email:     event.Email,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
	}
	if !event.StudentID.IsNil() {
		wire.StudentID = event.StudentID.String()
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	entry.Payload = payload

	if err := s.outbox.Append(ctx, entry); err != nil {
		return fmt.Errorf("stage audit event: %w", err)
	}
	return nil
}

func (s *EventStore) ListByStudent(ctx context.Context, studentID id.StudentID) ([]audit.Event, error) {
	if s.reads == nil {
		return nil, nil
	}
	return s.reads.ListByStudent(ctx, studentID)
}

func (s *EventStore) ListAll(ctx context.Context) ([]audit.Event, error) {
	if s.reads == nil {
		return nil, nil
	}
	return s.reads.ListAll(ctx)
}

func (s *EventStore) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.reads == nil {
		return nil, nil
	}
	return s.reads.ListRecent(ctx, limit)
}

func aggregateTypeFor(event audit.Event) string {
	switch audit.AuditEvent(event.Action) {
	case audit.EventSessionCreated, audit.EventSessionRevoked, audit.EventSessionsRevoked,
		audit.EventTokenRefreshed, audit.EventTokenReuseDetected, audit.EventAuthFailed:
		return "session"
	case audit.EventCourseUpserted, audit.EventCourseRemoved:
		return "course"
	case audit.EventTimetableCreated, audit.EventTimetableUpdated, audit.EventTimetableDeleted:
		return "timetable"
	default:
		return "student"
	}
}

func aggregateIDFor(event audit.Event) string {
	if !event.StudentID.IsNil() {
		return event.StudentID.String()
	}
	return event.Subject
}
