package main

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "gradus/internal/auth/handler"
	cataloghandler "gradus/internal/catalog/handler"
	evalhandler "gradus/internal/evaluation/handler"
	"gradus/internal/platform/config"
	"gradus/internal/platform/health"
	"gradus/internal/ratelimit"
	studenthandler "gradus/internal/student/handler"
	timetablehandler "gradus/internal/timetable/handler"
	adminmw "gradus/pkg/platform/middleware/admin"
	authmw "gradus/pkg/platform/middleware/auth"
	"gradus/pkg/platform/middleware/metadata"
	request "gradus/pkg/platform/middleware/request"
	"gradus/pkg/platform/middleware/requesttime"
)

// maxBodyBytes caps request bodies. The largest legitimate payload is a
// full course record update, well under this.
const maxBodyBytes = 1 << 20

type routerDeps struct {
	logger       *slog.Logger
	cfg          config.Config
	health       *health.Handler
	limiter      *ratelimit.Limiter
	jwtValidator authmw.JWTValidator
	trl          authmw.TokenRevocationChecker
	catalog      *cataloghandler.Handler
	evaluation   *evalhandler.Handler
	student      *studenthandler.Handler
	auth         *authhandler.Handler
	timetable    *timetablehandler.Handler
}

// newRouter assembles the HTTP surface: shared middleware, then public,
// throttled, authenticated, and admin route groups.
func newRouter(d routerDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(metadata.DefaultConfig()).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.logger))
	r.Use(request.LatencyMiddleware(request.NewMetrics()))
	r.Use(request.Timeout(30 * time.Second))
	r.Use(request.BodyLimit(maxBodyBytes))
	r.Use(request.ContentTypeJSON)

	d.health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	// Public catalog reads.
	d.catalog.Register(r)

	// Payload-driven evaluation for advising tools, throttled per client
	// since it needs no account. Evaluation walks the requirement tree and
	// may call the registry, so it gets its own tighter deadline.
	r.Group(func(r chi.Router) {
		r.Use(d.limiter.Middleware(ratelimit.ScopeEvaluation, ratelimit.ByClientIP))
		r.Use(request.Timeout(d.cfg.Evaluation.RequestTimeout))
		d.evaluation.Register(r)
	})

	// Credential endpoints share the auth throttle.
	r.Group(func(r chi.Router) {
		r.Use(d.limiter.Middleware(ratelimit.ScopeAuth, ratelimit.ByClientIP))
		d.student.Register(r)
		d.auth.Register(r)
	})

	// Everything behind a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.jwtValidator, d.trl, d.logger))
		d.auth.RegisterProtected(r)
		d.timetable.RegisterProtected(r)
		d.student.RegisterProtected(r,
			d.limiter.Middleware(ratelimit.ScopeEvaluation, ratelimit.ByStudent))
	})

	// Catalog mutations require the admin token. Without one configured
	// the routes are not mounted at all; an empty expected token would
	// otherwise match an empty header.
	if d.cfg.Server.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(d.cfg.Server.AdminToken, d.logger))
			d.catalog.RegisterAdmin(r)
		})
	} else {
		d.logger.Warn("GRADUS_ADMIN_TOKEN not set, admin routes disabled")
	}

	return r
}
