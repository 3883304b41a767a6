package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gradus/pkg/domain"
	"gradus/pkg/platform/audit"
	"gradus/pkg/platform/middleware/requesttime"
	"gradus/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captureEmitter struct {
	events []audit.Event
}

func (e *captureEmitter) Emit(_ context.Context, event audit.Event) error {
	e.events = append(e.events, event)
	return nil
}

func TestMiddleware(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	newRequest := func(ip string, at time.Time) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		ctx := requesttime.WithTime(r.Context(), at)
		ctx = requestcontext.WithClientMetadata(ctx, ip, "test-agent")
		return r.WithContext(ctx)
	}

	t.Run("allows under the limit and reports window headers", func(t *testing.T) {
		l := New(NewMemoryStore(), WithPolicy(ScopeAuth, Policy{Limit: 2, Window: time.Minute}))
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
		wantReset := strconv.FormatInt(windowStart.Add(time.Minute).Unix(), 10)
		assert.Equal(t, wantReset, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("throttles with 429, retry header and error body", func(t *testing.T) {
		l := New(NewMemoryStore(), WithPolicy(ScopeAuth, Policy{Limit: 1, Window: time.Minute}))
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart.Add(10*time.Second)))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "50", rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "rate_limited", body["error"])
		assert.NotEmpty(t, body["error_description"])
	})

	t.Run("clients are throttled independently", func(t *testing.T) {
		l := New(NewMemoryStore(), WithPolicy(ScopeAuth, Policy{Limit: 1, Window: time.Minute}))
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.8", windowStart))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("fails open when the store cannot answer", func(t *testing.T) {
		store := &stubStore{err: errors.New("connection refused")}
		l := New(store, WithLogger(discardLogger()))
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("requests without a subject pass through unchecked", func(t *testing.T) {
		store := &stubStore{}
		l := New(store)
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, store.takes)
	})

	t.Run("ByStudent keys on the authenticated student", func(t *testing.T) {
		store := &stubStore{res: Result{Allowed: true, Limit: 30, Remaining: 29, ResetAt: windowStart.Add(time.Minute)}}
		l := New(store)
		h := l.Middleware(ScopeEvaluation, ByStudent)(okHandler)

		studentID := id.StudentID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440001"))
		r := httptest.NewRequest(http.MethodGet, "/me/evaluation", nil)
		r = r.WithContext(requestcontext.WithStudentID(r.Context(), studentID))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.Len(t, store.takes, 1)
		assert.Equal(t, "ratelimit:evaluation:550e8400-e29b-41d4-a716-446655440001", store.takes[0].key)
	})

	t.Run("ByStudent skips unauthenticated requests", func(t *testing.T) {
		store := &stubStore{}
		l := New(store)
		h := l.Middleware(ScopeEvaluation, ByStudent)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me/evaluation", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, store.takes)
	})

	t.Run("denials land on the audit trail, admissions do not", func(t *testing.T) {
		emitter := &captureEmitter{}
		l := New(NewMemoryStore(),
			WithPolicy(ScopeAuth, Policy{Limit: 1, Window: time.Minute}),
			WithAuditLogger(audit.NewLogger(discardLogger(), emitter)),
		)
		h := l.Middleware(ScopeAuth, ByClientIP)(okHandler)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, emitter.events)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest("198.51.100.7", windowStart.Add(time.Second)))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		require.Len(t, emitter.events, 1)
		assert.Equal(t, string(audit.EventRateLimitExceeded), emitter.events[0].Action)
		assert.Equal(t, audit.CategorySecurity, emitter.events[0].Category)
	})
}
