package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradus/internal/catalog/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/httputil"
	request "gradus/pkg/platform/middleware/request"
)

// CatalogService defines the interface for catalog operations used by handlers.
// Lookup methods fall through to the course registry when the local catalog
// has no answer; mutations are admin-only and stay local.
type CatalogService interface {
	GetByCode(ctx context.Context, code id.CourseCode) (*models.Course, error)
	ListRequired(ctx context.Context) ([]models.Course, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) (*models.Course, error)
	DeleteCourse(ctx context.Context, code id.CourseCode) error
}

// Handler handles HTTP requests for the course catalog.
type Handler struct {
	service CatalogService
	logger  *slog.Logger
}

// New creates a new catalog handler.
func New(service CatalogService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only catalog routes on the given router.
// The static /courses/required route must be registered alongside the
// {code} route; chi resolves static segments before parameters.
func (h *Handler) Register(r chi.Router) {
	r.Get("/courses", h.HandleSearchCourses)
	r.Get("/courses/required", h.HandleListRequired)
	r.Get("/courses/{code}", h.HandleGetCourse)
}

// RegisterAdmin mounts the catalog mutation routes. Callers must wrap the
// router with admin token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/courses", h.HandleCreateCourse)
	r.Put("/admin/courses/{code}", h.HandleUpdateCourse)
	r.Delete("/admin/courses/{code}", h.HandleDeleteCourse)
}

// HandleSearchCourses handles GET /courses requests. Filters arrive as
// query parameters: q, category, stage, required, limit, offset.
func (h *Handler) HandleSearchCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	filter, err := searchFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	courses, err := h.service.Search(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "course search failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCourseListResponse(courses))
}

// HandleListRequired handles GET /courses/required requests. The required
// roster is served from the local catalog only.
func (h *Handler) HandleListRequired(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	courses, err := h.service.ListRequired(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "required course listing failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCourseListResponse(courses))
}

// HandleGetCourse handles GET /courses/{code} requests.
func (h *Handler) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	code, err := id.ParseCourseCode(chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid course code"))
		return
	}

	course, err := h.service.GetByCode(ctx, code)
	if err != nil {
		h.logger.ErrorContext(ctx, "course lookup failed", "error", err, "request_id", requestID, "course_code", code)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCourseResponse(course))
}

// HandleCreateCourse handles POST /admin/courses requests.
func (h *Handler) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCourseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// Validation already parsed every field, conversion cannot fail here.
	course, _ := req.ToCourse()

	created, err := h.service.CreateCourse(ctx, course)
	if err != nil {
		h.logger.ErrorContext(ctx, "course create failed", "error", err, "request_id", requestID, "course_code", course.Code)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toCourseResponse(created))
}

// HandleUpdateCourse handles PUT /admin/courses/{code} requests. The URL
// code is authoritative; the request body carries the replacement fields.
func (h *Handler) HandleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	code, err := id.ParseCourseCode(chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid course code"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateCourseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	updated, err := h.service.UpdateCourse(ctx, req.ToCourse(code))
	if err != nil {
		h.logger.ErrorContext(ctx, "course update failed", "error", err, "request_id", requestID, "course_code", code)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCourseResponse(updated))
}

// HandleDeleteCourse handles DELETE /admin/courses/{code} requests.
func (h *Handler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	code, err := id.ParseCourseCode(chi.URLParam(r, "code"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid course code"))
		return
	}

	if err := h.service.DeleteCourse(ctx, code); err != nil {
		h.logger.ErrorContext(ctx, "course delete failed", "error", err, "request_id", requestID, "course_code", code)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
