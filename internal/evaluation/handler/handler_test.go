package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks EvaluationService

// Handler tests verify HTTP status mapping from domain errors, payload
// validation, and the request-to-context mapping. Engine semantics are
// covered by the evaluation package's own tests.

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gradus/internal/evaluation"
	"gradus/internal/evaluation/handler/mocks"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newMockService(t *testing.T) *mocks.MockEvaluationService {
	t.Helper()
	return mocks.NewMockEvaluationService(gomock.NewController(t))
}

func passingReport() *evaluation.Report {
	return &evaluation.Report{
		Passed:       true,
		Tree:         &evaluation.Result{ID: "ROOT", Passed: true, Logic: evaluation.LogicAnd},
		MissingItems: []evaluation.MissingItem{},
		EvaluatedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestRouter(svc EvaluationService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graduation/evaluate", bytes.NewReader(payload))
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

func validBody() map[string]any {
	return map[string]any{
		"course_codes":           []string{"CS101", "CS204", "MA201"},
		"grades":                 map[string]string{"CS101": "a", "MA201": "F"},
		"curriculum_year":        "2024",
		"student_type":           "transfer",
		"extra_curricular_units": 40,
	}
}

// =============================================================================
// Evaluate
// =============================================================================

func TestHandleEvaluate_Success(t *testing.T) {
	svc := newMockService(t)

	var captured evaluation.Context
	svc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ec evaluation.Context) (*evaluation.Report, error) {
			captured = ec
			return passingReport(), nil
		})

	rec := doJSON(t, newTestRouter(svc), validBody())

	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"CS101", "CS204", "MA201"}, captured.CourseCodes)
	assert.Equal(t, id.GradeA, captured.Grades["CS101"], "lowercase grades are folded at the boundary")
	assert.Equal(t, id.GradeF, captured.Grades["MA201"])
	assert.Equal(t, "2024", captured.CurriculumYear)
	assert.Equal(t, id.StudentTypeTransfer, captured.StudentType)
	assert.Equal(t, 40, captured.ExtraCurricularUnits)

	var resp evaluation.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Passed)
	require.NotNil(t, resp.Tree)
	assert.Equal(t, "ROOT", resp.Tree.ID)
	assert.NotNil(t, resp.MissingItems)
}

func TestHandleEvaluate_EmptyRecordReachesTheEngine(t *testing.T) {
	// A freshman with no courses yet is a legal what-if query; only a
	// missing course_codes field is rejected here.
	svc := newMockService(t)

	var captured evaluation.Context
	svc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ec evaluation.Context) (*evaluation.Report, error) {
			captured = ec
			return passingReport(), nil
		})

	rec := doJSON(t, newTestRouter(svc), map[string]any{"course_codes": []string{}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, captured.CourseCodes)
	assert.Empty(t, captured.CourseCodes)
	assert.Empty(t, captured.StudentType, "track defaulting belongs to the engine")
}

func TestHandleEvaluate_FailingReportPassesThrough(t *testing.T) {
	required := 130.0
	current := 96.0
	remaining := 34.0
	svc := newMockService(t)
	svc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(&evaluation.Report{
		Passed: false,
		Tree: &evaluation.Result{
			ID:     "ROOT",
			Passed: false,
			Logic:  evaluation.LogicAnd,
			Results: []*evaluation.Result{{
				ID:        "TOTAL_CREDIT",
				Type:      evaluation.RuleTotalCredit,
				Passed:    false,
				Required:  &required,
				Current:   &current,
				Remaining: &remaining,
				Message:   "Total credits 96/130 (34 more needed)",
			}},
		},
		MissingItems: []evaluation.MissingItem{{
			ID: "TOTAL_CREDIT", Type: evaluation.RuleTotalCredit,
			Required: 130, Current: 96, Remaining: 34,
			Message: "Total credits 96/130 (34 more needed)",
		}},
		EvaluatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}, nil)

	rec := doJSON(t, newTestRouter(svc), validBody())

	require.Equal(t, http.StatusOK, rec.Code, "a failed requirement is a successful evaluation")
	var resp evaluation.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Passed)
	require.Len(t, resp.MissingItems, 1)
	assert.Equal(t, evaluation.RuleTotalCredit, resp.MissingItems[0].Type)
	assert.InDelta(t, 34, resp.MissingItems[0].Remaining, 0.001)
}

func TestHandleEvaluate_ValidationErrors(t *testing.T) {
	tooMany := make([]string, maxCourseCodes+1)
	for i := range tooMany {
		tooMany[i] = "CS101"
	}

	tests := []struct {
		name    string
		body    map[string]any
		wantMsg string
	}{
		{"missing course codes", map[string]any{"grades": map[string]string{}}, "course_codes is required"},
		{"oversized course list", map[string]any{"course_codes": tooMany}, "at most 500"},
		{"negative units", map[string]any{"course_codes": []string{}, "extra_curricular_units": -1}, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No EXPECT: rejected payloads never reach the engine.
			svc := newMockService(t)

			rec := doJSON(t, newTestRouter(svc), tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assertErrorResponse(t, rec, "validation_error")
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestHandleEvaluate_MalformedJSON(t *testing.T) {
	router := newTestRouter(newMockService(t))

	req := httptest.NewRequest(http.MethodPost, "/graduation/evaluate", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assertErrorResponse(t, rec, "bad_request")
}

func TestHandleEvaluate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"engine rejects record", dErrors.New(dErrors.CodeValidation, "invalid course code format: bad!code"), http.StatusBadRequest, "validation_error"},
		{"course source down", dErrors.New(dErrors.CodeUnavailable, "course data source unavailable"), http.StatusServiceUnavailable, "registry_unavailable"},
		{"course source timeout", dErrors.New(dErrors.CodeTimeout, "course data retrieval timed out"), http.StatusGatewayTimeout, "registry_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService(t)
			svc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := doJSON(t, newTestRouter(svc), validBody())

			require.Equal(t, tt.wantStatus, rec.Code)
			assertErrorResponse(t, rec, tt.wantCode)
		})
	}
}
