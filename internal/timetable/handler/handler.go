// Package handler exposes the authenticated timetable endpoints: CRUD
// over a student's weekly course plans under /me/timetables.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradus/internal/timetable/models"
	"gradus/internal/timetable/service"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/httputil"
	request "gradus/pkg/platform/middleware/request"
)

// TimetableService defines the interface for timetable operations used by handlers.
type TimetableService interface {
	Create(ctx context.Context, in service.CreateInput) (*models.Timetable, error)
	Get(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) (*models.Timetable, error)
	List(ctx context.Context, studentID id.StudentID) ([]models.Timetable, error)
	Update(ctx context.Context, in service.UpdateInput) (*models.Timetable, error)
	Delete(ctx context.Context, studentID id.StudentID, timetableID id.TimetableID) error
}

// Handler handles HTTP requests for timetables.
type Handler struct {
	service TimetableService
	logger  *slog.Logger
}

// New creates a new timetable handler.
func New(service TimetableService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProtected mounts the timetable routes. Callers must wrap the
// router with the bearer-token middleware that populates the student ID.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/me/timetables", h.HandleCreate)
	r.Get("/me/timetables", h.HandleList)
	r.Get("/me/timetables/{timetable_id}", h.HandleGet)
	r.Put("/me/timetables/{timetable_id}", h.HandleUpdate)
	r.Delete("/me/timetables/{timetable_id}", h.HandleDelete)
}

// HandleCreate handles POST /me/timetables requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CreateTimetableRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	timetable, err := h.service.Create(ctx, service.CreateInput{
		StudentID: studentID,
		Name:      req.Name,
		Entries:   req.ToEntries(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "timetable create failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.ToTimetableResponse(timetable))
}

// HandleList handles GET /me/timetables requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	timetables, err := h.service.List(ctx, studentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "timetable list failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToTimetablesResponse(timetables))
}

// HandleGet handles GET /me/timetables/{timetable_id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	timetableID, err := id.ParseTimetableID(chi.URLParam(r, "timetable_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid timetable ID"))
		return
	}

	timetable, err := h.service.Get(ctx, studentID, timetableID)
	if err != nil {
		h.logger.ErrorContext(ctx, "timetable lookup failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToTimetableResponse(timetable))
}

// HandleUpdate handles PUT /me/timetables/{timetable_id} requests. The
// body carries the complete plan; the stored grid is replaced, not merged.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	timetableID, err := id.ParseTimetableID(chi.URLParam(r, "timetable_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid timetable ID"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateTimetableRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	timetable, err := h.service.Update(ctx, service.UpdateInput{
		StudentID:   studentID,
		TimetableID: timetableID,
		Name:        req.Name,
		Entries:     req.ToEntries(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "timetable update failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToTimetableResponse(timetable))
}

// HandleDelete handles DELETE /me/timetables/{timetable_id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	timetableID, err := id.ParseTimetableID(chi.URLParam(r, "timetable_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid timetable ID"))
		return
	}

	if err := h.service.Delete(ctx, studentID, timetableID); err != nil {
		h.logger.ErrorContext(ctx, "timetable delete failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
