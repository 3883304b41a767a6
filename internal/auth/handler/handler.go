// Package handler exposes the authentication endpoints: public login
// and token refresh, plus the authenticated logout and session
// management surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradus/internal/auth/models"
	id "gradus/pkg/domain"
	dErrors "gradus/pkg/domain-errors"
	"gradus/pkg/platform/httputil"
	authmw "gradus/pkg/platform/middleware/auth"
	request "gradus/pkg/platform/middleware/request"
)

// AuthService defines the interface for auth operations used by handlers.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.TokenResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResult, error)
	Logout(ctx context.Context, sessionID id.SessionID) error
	RevokeSession(ctx context.Context, studentID id.StudentID, sessionID id.SessionID) error
	ListSessions(ctx context.Context, studentID id.StudentID, currentSessionID id.SessionID) ([]models.SessionSummary, error)
}

// Handler handles HTTP requests for authentication and sessions.
type Handler struct {
	service AuthService
	logger  *slog.Logger
}

// New creates a new auth handler.
func New(service AuthService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public auth routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
}

// RegisterProtected mounts the authenticated session routes. Callers
// must wrap the router with the bearer-token middleware that populates
// the student and session IDs.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
	r.Get("/auth/sessions", h.HandleListSessions)
	r.Delete("/auth/sessions/{session_id}", h.HandleRevokeSession)
}

// HandleLogin handles POST /auth/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToTokenResponse(result))
}

// HandleRefresh handles POST /auth/refresh requests.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh rejected", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToTokenResponse(result))
}

// HandleLogout handles POST /auth/logout requests, ending the calling session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	sessionID, err := httputil.RequireSessionID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Logout(ctx, sessionID); err != nil {
		h.logger.ErrorContext(ctx, "logout failed", "error", err, "request_id", requestID, "session_id", sessionID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListSessions handles GET /auth/sessions requests.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sessions, err := h.service.ListSessions(ctx, studentID, authmw.GetSessionID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "session listing failed", "error", err, "request_id", requestID, "student_id", studentID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.ToSessionsResponse(sessions))
}

// HandleRevokeSession handles DELETE /auth/sessions/{session_id}
// requests, ending another of the student's sessions.
func (h *Handler) HandleRevokeSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	studentID, err := httputil.RequireStudentID(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	sessionID, err := id.ParseSessionID(chi.URLParam(r, "session_id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid session ID"))
		return
	}

	if err := h.service.RevokeSession(ctx, studentID, sessionID); err != nil {
		h.logger.ErrorContext(ctx, "session revocation failed", "error", err, "request_id", requestID, "student_id", studentID, "session_id", sessionID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
