// Package handler exposes the evaluation engine over HTTP for callers that
// supply the academic record in the request body. The stored-record path
// lives on the student routes; this one backs advising tools and what-if
// checks that have no account behind them.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gradus/internal/evaluation"
	"gradus/pkg/platform/httputil"
	request "gradus/pkg/platform/middleware/request"
)

// EvaluationService defines the evaluation operation used by the handler.
// Satisfied by *evaluation.Service.
type EvaluationService interface {
	Evaluate(ctx context.Context, ec evaluation.Context) (*evaluation.Report, error)
}

// Handler handles HTTP requests for payload-driven graduation evaluation.
type Handler struct {
	service EvaluationService
	logger  *slog.Logger
}

// New creates a new evaluation handler.
func New(service EvaluationService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the evaluation route on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/graduation/evaluate", h.HandleEvaluate)
}

// HandleEvaluate handles POST /graduation/evaluate requests. The response
// is the full report: verdict, result tree, and flattened missing items.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.service.Evaluate(ctx, req.ToContext())
	if err != nil {
		h.logger.ErrorContext(ctx, "graduation evaluation failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}
