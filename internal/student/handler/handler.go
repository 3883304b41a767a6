// Package handler exposes the student account and record endpoints:
// public registration plus the authenticated /me surface, including
// graduation evaluation of the saved record.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradus/internal/evaluation"
	"gradus/internal/student/models"
	"gradus/internal/student/service"
	id "gradus/pkg/domain"
	"gradus/pkg/platform/httputil"
	request "gradus/pkg/platform/middleware/request"
)

// StudentService defines the interface for student operations used by handlers.
type StudentService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Student, error)
	GetProfile(ctx context.Context, studentID id.StudentID) (*service.Profile, error)
	UpdateRecord(ctx context.Context, in service.UpdateRecordInput) (*service.Profile, error)
	EvaluateGraduation(ctx context.Context, studentID id.StudentID) (*evaluation.Report, error)
}

// Handler handles HTTP requests for student accounts and records.
type Handler struct {
	service StudentService
	logger  *slog.Logger
}

// New creates a new student handler.
func New(service StudentService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public registration route on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/students", h.HandleRegister)
}

// RegisterProtected mounts the authenticated /me routes. Callers must wrap
// the router with the bearer-token middleware that populates the student ID.
// Middleware passed here applies to the graduation route only; evaluation
// walks the full requirement tree, so the caller may throttle it separately
// from plain record reads.
func (h *Handler) RegisterProtected(r chi.Router, graduationMW ...func(http.Handler) http.Handler) {
	r.Get("/me", h.HandleGetProfile)
	r.Put("/me/courses", h.HandleUpdateRecord)
	r.With(graduationMW...).Get("/me/graduation", h.HandleGraduation)
}

// HandleRegister handles POST /students requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	student, err := h.service.Register(ctx, service.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		Name:           req.Name,
		StudentType:    req.ParsedStudentType(),
		CurriculumYear: req.CurriculumYear,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "student registration failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.ToProfileResponse(student, nil))
}

// HandleGetProfile handles GET /me requests.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.GetProfile(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "profile lookup failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToProfileResponse(&profile.Student, profile.Courses))
}

// HandleUpdateRecord handles PUT /me/courses requests. The body carries
// the student's complete record; the stored set is replaced, not merged.
func (h *Handler) HandleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateRecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.service.UpdateRecord(ctx, service.UpdateRecordInput{
		StudentID:            studentID,
		Courses:              req.ToCourses(),
		ExtraCurricularUnits: req.ExtraCurricularUnits,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "record update failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToProfileResponse(&profile.Student, profile.Courses))
}

// HandleGraduation handles GET /me/graduation requests, evaluating the
// graduation requirements against the saved record.
func (h *Handler) HandleGraduation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.EvaluateGraduation(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "graduation evaluation failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
