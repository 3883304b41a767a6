package ratelimit

import (
	"context"
	"net/http"
	"strconv"

	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/httputil"
	"gradus/pkg/requestcontext"
)

// KeyFunc extracts the throttling subject from a request. An empty subject
// skips the check for that request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys requests by the client IP recorded at the edge.
func ByClientIP(r *http.Request) string {
	return requestcontext.ClientIP(r.Context())
}

// ByStudent keys requests by the authenticated student. Unauthenticated
// requests are not limited here; the auth middleware already rejects them.
func ByStudent(r *http.Request) string {
	studentID := requestcontext.StudentID(r.Context())
	if studentID.IsNil() {
		return ""
	}
	return studentID.String()
}

// Middleware enforces the scope's policy on every request passing through.
// When the store cannot answer, the request is admitted; the limiter going
// down must not take the API down with it.
func (l *Limiter) Middleware(scope Scope, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := key(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), scope, subject)
			if err != nil {
				l.logger.ErrorContext(r.Context(), "rate limit check failed",
					"error", err,
					"scope", scope,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, res)

			if !res.Allowed {
				l.logThrottled(r.Context(), scope, subject)
				writeThrottled(w, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logThrottled records a denial on the audit trail. The subject key depends
// on the scope: evaluation buckets are keyed by student, auth by client IP.
func (l *Limiter) logThrottled(ctx context.Context, scope Scope, subject string) {
	if l.audit == nil {
		return
	}
	subjectKey := "client_ip"
	if scope == ScopeEvaluation {
		subjectKey = "student_id"
	}
	l.audit.Log(ctx, string(audit.EventRateLimitExceeded),
		"scope", string(scope),
		subjectKey, subject,
	)
}

// setRateLimitHeaders advertises the window state on every limited response.
// Unlimited scopes report no headers.
func setRateLimitHeaders(w http.ResponseWriter, res Result) {
	if res.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
}

func writeThrottled(w http.ResponseWriter, res Result) {
	w.Header().Set("Retry-After", strconv.Itoa(res.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":             "rate_limited",
		"error_description": "too many requests, retry later",
	})
}
