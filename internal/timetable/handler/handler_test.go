package handler

// Handler tests verify HTTP status mapping from domain errors, body
// validation, and the auth context contract. Happy-path flows across the
// full stack live in the e2e features.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradus/internal/timetable/models"
	"gradus/internal/timetable/service"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/requestcontext"
)

// =============================================================================
// Stub Implementations
// =============================================================================

type stubTimetableService struct {
	createFunc func(ctx context.Context, in service.CreateInput) (*models.Timetable, error)
	getFunc    func(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error)
	listFunc   func(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error)
	updateFunc func(ctx context.Context, in service.UpdateInput) (*models.Timetable, error)
	deleteFunc func(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) error
}

func (s *stubTimetableService) Create(ctx context.Context, in service.CreateInput) (*models.Timetable, error) {
	if s.createFunc != nil {
		return s.createFunc(ctx, in)
	}
	timetable := sampleTimetable()
	timetable.StudentID = in.StudentID
	timetable.Name = in.Name
	timetable.Entries = in.Entries
	return &timetable, nil
}

func (s *stubTimetableService) Get(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, studentID, timetableID)
	}
	timetable := sampleTimetable()
	timetable.ID = timetableID
	timetable.StudentID = studentID
	return &timetable, nil
}

func (s *stubTimetableService) List(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, studentID)
	}
	first := sampleTimetable()
	first.StudentID = studentID
	second := sampleTimetable()
	second.ID = id.TimetableID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440033"))
	second.StudentID = studentID
	second.Name = "Fallback plan"
	second.Entries = nil
	return []models.Timetable{first, second}, nil
}

func (s *stubTimetableService) Update(ctx context.Context, in service.UpdateInput) (*models.Timetable, error) {
	if s.updateFunc != nil {
		return s.updateFunc(ctx, in)
	}
	timetable := sampleTimetable()
	timetable.ID = in.TimetableID
	timetable.StudentID = in.StudentID
	timetable.Name = in.Name
	timetable.Entries = in.Entries
	return &timetable, nil
}

func (s *stubTimetableService) Delete(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, studentID, timetableID)
	}
	return nil
}

// =============================================================================
// Test Helpers
// =============================================================================

func sampleTimetable() models.Timetable {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return models.Timetable{
		ID:        id.TimetableID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440022")),
		StudentID: testStudentID(),
		Name:      "Spring draft",
		Entries: []models.Entry{
			{CourseCode: "CS101", DayOfWeek: 1, Period: 2},
			{CourseCode: "MA201", DayOfWeek: 3, Period: 4},
		},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func testStudentID() id.StudentID {
	return id.StudentID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440001"))
}

func testTimetableID() id.TimetableID {
	return id.TimetableID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440022"))
}

// newTestRouter mounts the handler the way the server does: every
// timetable route behind a middleware that injects the authenticated
// student.
func newTestRouter(svc TimetableService, studentID id.StudentID) http.Handler {
	if svc == nil {
		svc = &stubTimetableService{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := requestcontext.WithStudentID(req.Context(), studentID)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterProtected(r)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func assertErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, expectedCode string) {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, expectedCode, resp["error"])
}

func validCreateBody() map[string]any {
	return map[string]any{
		"name": "Spring draft",
		"entries": []map[string]any{
			{"course_code": "cs101", "day_of_week": 1, "period": 2},
			{"course_code": "MA201", "day_of_week": 3, "period": 4},
		},
	}
}

// =============================================================================
// Create
// =============================================================================

func TestHandleCreate_Success(t *testing.T) {
	var captured service.CreateInput
	svc := &stubTimetableService{
		createFunc: func(_ context.Context, in service.CreateInput) (*models.Timetable, error) {
			captured = in
			timetable := sampleTimetable()
			timetable.Name = in.Name
			timetable.Entries = in.Entries
			return &timetable, nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodPost, "/me/timetables", validCreateBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testStudentID(), captured.StudentID)
	require.Len(t, captured.Entries, 2)
	assert.Equal(t, id.CourseCode("CS101"), captured.Entries[0].CourseCode, "lowercase input is canonicalized before the service")

	var resp models.TimetableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Spring draft", resp.Name)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "CS101", resp.Entries[0].CourseCode)
	assert.Equal(t, 1, resp.Entries[0].DayOfWeek)
	assert.Equal(t, 2, resp.Entries[0].Period)
}

func TestHandleCreate_NameOnly(t *testing.T) {
	rec := doJSON(t, newTestRouter(nil, testStudentID()), http.MethodPost, "/me/timetables",
		map[string]any{"name": "Ideas"})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp models.TimetableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Entries, "an empty grid marshals as [], not null")
	assert.Contains(t, rec.Body.String(), `"entries":[]`)
}

func TestHandleCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"blank name", func(b map[string]any) { b["name"] = "   " }},
		{"day above range", func(b map[string]any) {
			b["entries"].([]map[string]any)[0]["day_of_week"] = 7
		}},
		{"period above range", func(b map[string]any) {
			b["entries"].([]map[string]any)[0]["period"] = 11
		}},
		{"malformed course code", func(b map[string]any) {
			b["entries"].([]map[string]any)[0]["course_code"] = "bad!code"
		}},
		{"two courses in one slot", func(b map[string]any) {
			entries := b["entries"].([]map[string]any)
			entries[1]["day_of_week"] = entries[0]["day_of_week"]
			entries[1]["period"] = entries[0]["period"]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validCreateBody()
			tt.mutate(body)

			rec := doJSON(t, newTestRouter(nil, testStudentID()), http.MethodPost, "/me/timetables", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assertErrorResponse(t, rec, "validation_error")
		})
	}
}

func TestHandleCreate_MalformedJSON(t *testing.T) {
	router := newTestRouter(nil, testStudentID())

	req := httptest.NewRequest(http.MethodPost, "/me/timetables", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "bad_request")
}

func TestHandleCreate_UnknownCourse(t *testing.T) {
	svc := &stubTimetableService{
		createFunc: func(_ context.Context, _ service.CreateInput) (*models.Timetable, error) {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown course code: XX999")
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodPost, "/me/timetables", validCreateBody())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "validation_error")
	assert.Contains(t, rec.Body.String(), "XX999")
}

func TestHandleCreate_LimitReached(t *testing.T) {
	svc := &stubTimetableService{
		createFunc: func(_ context.Context, _ service.CreateInput) (*models.Timetable, error) {
			return nil, dErrors.New(dErrors.CodeConflict, "timetable limit reached")
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodPost, "/me/timetables", validCreateBody())

	require.Equal(t, http.StatusConflict, rec.Code)
	assertErrorResponse(t, rec, "conflict")
}

func TestHandleCreate_MissingAuthContext(t *testing.T) {
	rec := doJSON(t, newTestRouter(nil, id.StudentID{}), http.MethodPost, "/me/timetables", validCreateBody())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assertErrorResponse(t, rec, "internal_error")
}

// =============================================================================
// List and Get
// =============================================================================

func TestHandleList_Success(t *testing.T) {
	var captured id.StudentID
	svc := &stubTimetableService{
		listFunc: func(_ context.Context, studentID id.StudentID) ([]models.Timetable, error) {
			captured = studentID
			first := sampleTimetable()
			return []models.Timetable{first}, nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodGet, "/me/timetables", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testStudentID(), captured, "lists the authenticated student")

	var resp models.TimetablesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Timetables, 1)
	assert.Equal(t, "Spring draft", resp.Timetables[0].Name)
	assert.Len(t, resp.Timetables[0].Entries, 2)
}

func TestHandleList_EmptyIsNotNull(t *testing.T) {
	svc := &stubTimetableService{
		listFunc: func(_ context.Context, _ id.StudentID) ([]models.Timetable, error) {
			return []models.Timetable{}, nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodGet, "/me/timetables", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"timetables":[]`)
}

func TestHandleGet_Success(t *testing.T) {
	var capturedStudent id.StudentID
	var capturedTimetable id.TimetableID
	svc := &stubTimetableService{
		getFunc: func(_ context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error) {
			capturedStudent = studentID
			capturedTimetable = timetableID
			timetable := sampleTimetable()
			return &timetable, nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodGet,
		"/me/timetables/"+testTimetableID().String(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testStudentID(), capturedStudent)
	assert.Equal(t, testTimetableID(), capturedTimetable)

	var resp models.TimetableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testTimetableID().String(), resp.ID)
}

func TestHandleGet_InvalidID(t *testing.T) {
	rec := doJSON(t, newTestRouter(nil, testStudentID()), http.MethodGet, "/me/timetables/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "bad_request")
}

func TestHandleGet_NotFound(t *testing.T) {
	svc := &stubTimetableService{
		getFunc: func(_ context.Context, _ id.StudentID, _ id.TimetableID) (*models.Timetable, error) {
			return nil, dErrors.New(dErrors.CodeNotFound, "timetable not found")
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodGet,
		"/me/timetables/"+testTimetableID().String(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorResponse(t, rec, "not_found")
}

// =============================================================================
// Update and Delete
// =============================================================================

func TestHandleUpdate_Success(t *testing.T) {
	var captured service.UpdateInput
	svc := &stubTimetableService{
		updateFunc: func(_ context.Context, in service.UpdateInput) (*models.Timetable, error) {
			captured = in
			timetable := sampleTimetable()
			timetable.Name = in.Name
			timetable.Entries = in.Entries
			return &timetable, nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodPut,
		"/me/timetables/"+testTimetableID().String(), map[string]any{
			"name":    "Final plan",
			"entries": []map[string]any{{"course_code": "ge150", "day_of_week": 2, "period": 1}},
		})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testStudentID(), captured.StudentID)
	assert.Equal(t, testTimetableID(), captured.TimetableID)
	require.Len(t, captured.Entries, 1)
	assert.Equal(t, id.CourseCode("GE150"), captured.Entries[0].CourseCode)

	var resp models.TimetableResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Final plan", resp.Name)
}

func TestHandleUpdate_MissingEntries(t *testing.T) {
	rec := doJSON(t, newTestRouter(nil, testStudentID()), http.MethodPut,
		"/me/timetables/"+testTimetableID().String(), map[string]any{"name": "Final plan"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "validation_error")
	assert.Contains(t, rec.Body.String(), "entries is required")
}

func TestHandleUpdate_NotFound(t *testing.T) {
	svc := &stubTimetableService{
		updateFunc: func(_ context.Context, _ service.UpdateInput) (*models.Timetable, error) {
			return nil, dErrors.New(dErrors.CodeNotFound, "timetable not found")
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodPut,
		"/me/timetables/"+testTimetableID().String(), map[string]any{
			"name":    "Final plan",
			"entries": []map[string]any{},
		})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorResponse(t, rec, "not_found")
}

func TestHandleDelete_Success(t *testing.T) {
	var capturedStudent id.StudentID
	var capturedTimetable id.TimetableID
	svc := &stubTimetableService{
		deleteFunc: func(_ context.Context, studentID id.StudentID, timetableID id.TimetableID) error {
			capturedStudent = studentID
			capturedTimetable = timetableID
			return nil
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodDelete,
		"/me/timetables/"+testTimetableID().String(), nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testStudentID(), capturedStudent)
	assert.Equal(t, testTimetableID(), capturedTimetable)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandleDelete_InvalidID(t *testing.T) {
	rec := doJSON(t, newTestRouter(nil, testStudentID()), http.MethodDelete, "/me/timetables/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "bad_request")
}

func TestHandleDelete_NotFound(t *testing.T) {
	svc := &stubTimetableService{
		deleteFunc: func(_ context.Context, _ id.StudentID, _ id.TimetableID) error {
			return dErrors.New(dErrors.CodeNotFound, "timetable not found")
		},
	}

	rec := doJSON(t, newTestRouter(svc, testStudentID()), http.MethodDelete,
		"/me/timetables/"+testTimetableID().String(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorResponse(t, rec, "not_found")
}
