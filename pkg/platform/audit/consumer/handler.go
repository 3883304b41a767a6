package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gradus/internal/platform/kafka/consumer"
	id "gradus/pkg/domain"
	audit "gradus/pkg/platform/audit"

	"github.com/google/uuid"
)

// EventAppender is the store operation the handler needs. Satisfied by the
// audit postgres store.
type EventAppender interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// Handler processes audit events from Kafka and writes them to PostgreSQL.
// It implements consumer.Handler for use with the Kafka consumer.
type Handler struct {
	store  EventAppender
	logger *slog.Logger
}

// NewHandler creates a new audit event consumer handler.
// A nil logger falls back to slog.Default.
func NewHandler(store EventAppender, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// kafkaPayload matches the JSON structure produced by the outbox store.
type kafkaPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	StudentID string `json:"StudentID"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Outcome   string `json:"Outcome"`
	Reason    string `json:"Reason"`
	Email     string `json:"Email"`
	RequestID string `json:"RequestID"`
	ActorID   string `json:"ActorID"`
}

// Handle processes a single Kafka message containing an audit event.
// It performs idempotent insert using the message key as the event ID.
func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	// Parse event ID from message key
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		h.logger.Error("failed to parse event ID from message key",
			"key", string(msg.Key),
			"error", err,
		)
		// Return nil to commit the offset - malformed messages should not block processing
		return nil
	}

	// Unmarshal into intermediate struct that matches the JSON format
	var payload kafkaPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("failed to unmarshal audit payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	// Convert to audit.Event
	event := audit.Event{
		Category:  audit.EventCategory(payload.Category),
		Subject:   payload.Subject,
		Action:    payload.Action,
		Outcome:   payload.Outcome,
		Reason:    payload.Reason,
		Email:     payload.Email,
		RequestID: payload.RequestID,
		ActorID:   payload.ActorID,
	}

	// Parse timestamp
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}

	// Parse StudentID
	if payload.StudentID != "" {
		if sid, err := uuid.Parse(payload.StudentID); err == nil {
			event.StudentID = id.StudentID(sid)
		}
	}

	// Default category if empty
	if event.Category == "" {
		event.Category = audit.CategoryOperations
	}

	// Log the event being processed
	h.logger.Debug("processing audit event",
		"event_id", eventID,
		"action", event.Action,
		"student_id", event.StudentID,
	)

	// Idempotent insert using event ID
	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		h.logger.Error("failed to store audit event",
			"event_id", eventID,
			"action", event.Action,
			"error", err,
		)
		// Return error to prevent commit - message will be redelivered
		return fmt.Errorf("store audit event: %w", err)
	}

	h.logger.Debug("stored audit event",
		"event_id", eventID,
		"action", event.Action,
	)

	return nil
}
