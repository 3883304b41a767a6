// Package requestcontext carries request-scoped identity and metadata through
// context.Context. Middleware writes these values once at the edge; services
// and stores read them without depending on net/http.
package requestcontext

import (
	"context"

	id "gradus/pkg/domain"
)

type contextKey int

const (
	keyRequestID contextKey = iota
	keyClientIP
	keyUserAgent
	keyStudentID
	keySessionID
)

// WithRequestID stores the correlation ID for the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// RequestID returns the correlation ID, or "" when outside a request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(keyRequestID).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the client IP and User-Agent extracted at the edge.
func WithClientMetadata(ctx context.Context, ip, userAgent string) context.Context {
	ctx = context.WithValue(ctx, keyClientIP, ip)
	return context.WithValue(ctx, keyUserAgent, userAgent)
}

// ClientIP returns the client IP, or "" when not set.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientIP).(string); ok {
		return v
	}
	return ""
}

// UserAgent returns the client User-Agent header, or "" when not set.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserAgent).(string); ok {
		return v
	}
	return ""
}

// WithStudentID stores the authenticated student's ID.
func WithStudentID(ctx context.Context, studentID id.StudentID) context.Context {
	return context.WithValue(ctx, keyStudentID, studentID)
}

// StudentID returns the authenticated student's ID, or the zero ID when
// the request is unauthenticated.
func StudentID(ctx context.Context) id.StudentID {
	if v, ok := ctx.Value(keyStudentID).(id.StudentID); ok {
		return v
	}
	return id.StudentID{}
}

// WithSessionID stores the authenticated session's ID.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, keySessionID, sessionID)
}

// SessionID returns the authenticated session's ID, or the zero ID.
func SessionID(ctx context.Context) id.SessionID {
	if v, ok := ctx.Value(keySessionID).(id.SessionID); ok {
		return v
	}
	return id.SessionID{}
}
