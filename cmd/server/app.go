package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	authhandler "gradus/internal/auth/handler"
	authmetrics "gradus/internal/auth/metrics"
	authservice "gradus/internal/auth/service"
	refreshstore "gradus/internal/auth/store/refresh-token"
	"gradus/internal/auth/store/revocation"
	sessionstore "gradus/internal/auth/store/session"
	"gradus/internal/auth/workers/cleanup"
	"gradus/internal/catalog/cache"
	"gradus/internal/catalog/client"
	cataloghandler "gradus/internal/catalog/handler"
	catalogmetrics "gradus/internal/catalog/metrics"
	catalogservice "gradus/internal/catalog/service"
	catalogstore "gradus/internal/catalog/store"
	"gradus/internal/catalog/tracer"
	evaladapters "gradus/internal/evaluation/adapters"
	evalhandler "gradus/internal/evaluation/handler"
	evalmetrics "gradus/internal/evaluation/metrics"
	"gradus/internal/evaluation"
	jwttoken "gradus/internal/jwt_token"
	"gradus/internal/platform/config"
	"gradus/internal/platform/database"
	"gradus/internal/platform/health"
	"gradus/internal/platform/kafka"
	kafkaconsumer "gradus/internal/platform/kafka/consumer"
	kafkaproducer "gradus/internal/platform/kafka/producer"
	platformredis "gradus/internal/platform/redis"
	"gradus/internal/ratelimit"
	"gradus/internal/seeder"
	studenthandler "gradus/internal/student/handler"
	studentservice "gradus/internal/student/service"
	studentstore "gradus/internal/student/store"
	timetablehandler "gradus/internal/timetable/handler"
	timetableservice "gradus/internal/timetable/service"
	timetablestore "gradus/internal/timetable/store"
	"gradus/pkg/platform/audit"
	auditconsumer "gradus/pkg/platform/audit/consumer"
	auditmetrics "gradus/pkg/platform/audit/metrics"
	"gradus/pkg/platform/audit/outbox"
	outboxmemory "gradus/pkg/platform/audit/outbox/store/memory"
	outboxpostgres "gradus/pkg/platform/audit/outbox/store/postgres"
	outboxworker "gradus/pkg/platform/audit/outbox/worker"
	auditpublisher "gradus/pkg/platform/audit/publisher"
	auditmemory "gradus/pkg/platform/audit/store/memory"
	auditpostgres "gradus/pkg/platform/audit/store/postgres"
	"gradus/pkg/platform/circuit"
)

// app holds everything the server lifecycle needs to start workers and
// shut down in order.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	router chi.Router

	pool  *database.Pool
	redis *platformredis.Client

	producer      *kafkaproducer.Producer
	outboxWorker  *outboxworker.Worker
	auditConsumer *kafkaconsumer.Consumer
	publisher     *auditpublisher.Publisher
	cleanup       *cleanup.CleanupService
}

// newApp builds the full dependency graph: infrastructure first, then
// stores, services, and handlers, finishing with the router. Postgres,
// Redis, and Kafka are all optional; the app degrades to in-memory
// equivalents so a bare `go run ./cmd/server` works.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	pool, err := database.New(database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a.pool = pool

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.redis = redisClient

	// Stores. One concrete store per entity, shared by every consumer of
	// that entity so the seeder and the services observe the same data.
	var (
		courseStore    catalogservice.Store
		courseSeed     seeder.CourseStore
		studentCrud    studentservice.Store
		studentSeed    seeder.StudentStore
		sessions       authservice.SessionStore
		sessionSweep   cleanup.SessionStore
		refreshTokens  authservice.RefreshTokenStore
		refreshSweep   cleanup.RefreshTokenStore
		trl            revocation.TokenRevocationList
		trlSweep       cleanup.RevocationStore
		timetableStore timetableservice.Store
		auditStore     audit.Store
		auditAppend    auditconsumer.EventAppender
		outboxStore    outbox.Store
	)
	if pool != nil {
		db := pool.DB()
		cs := catalogstore.NewPostgres(db)
		courseStore, courseSeed = cs, cs
		ss := studentstore.NewPostgres(db)
		studentCrud, studentSeed = ss, ss
		ses := sessionstore.NewPostgres(db)
		sessions, sessionSweep = ses, ses
		rts := refreshstore.NewPostgres(db)
		refreshTokens, refreshSweep = rts, rts
		pt := revocation.NewPostgresTRL(db)
		trl, trlSweep = pt, pt
		timetableStore = timetablestore.NewPostgres(db)
		as := auditpostgres.New(db)
		auditStore, auditAppend = as, as
		outboxStore = outboxpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		cs := catalogstore.NewInMemory()
		courseStore, courseSeed = cs, cs
		ss := studentstore.NewInMemory()
		studentCrud, studentSeed = ss, ss
		ses := sessionstore.NewInMemory()
		sessions, sessionSweep = ses, ses
		rts := refreshstore.NewInMemory()
		refreshTokens, refreshSweep = rts, rts
		mt := revocation.NewInMemoryTRL()
		trl, trlSweep = mt, mt
		timetableStore = timetablestore.NewInMemory()
		as := auditmemory.NewInMemoryStore()
		auditStore, auditAppend = as, as
		outboxStore = outboxmemory.New()
	}

	// Audit pipeline. With Kafka the hot path stages events in the outbox
	// and a worker relays them to the topic; a consumer writes the durable
	// audit row. Without it events go straight to the audit store.
	auditMx := auditmetrics.New()
	sink := auditStore
	if cfg.Kafka.Enabled() {
		prod, err := kafkaproducer.New(kafkaproducer.Config{
			Brokers: cfg.Kafka.Brokers,
			Retries: 5,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		a.producer = prod

		a.outboxWorker = outboxworker.New(outboxStore, prod,
			outboxworker.WithTopic(cfg.Kafka.AuditTopic),
			outboxworker.WithBatchSize(cfg.Audit.OutboxBatchSize),
			outboxworker.WithPollInterval(cfg.Audit.OutboxPollInterval),
			outboxworker.WithLogger(log),
		)

		cons, err := kafkaconsumer.New(kafkaconsumer.Config{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroup,
		}, auditconsumer.NewHandler(auditAppend, log), log)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		if err := cons.Subscribe([]string{cfg.Kafka.AuditTopic}); err != nil {
			return nil, fmt.Errorf("kafka subscribe: %w", err)
		}
		a.auditConsumer = cons

		sink = outbox.NewEventStore(outboxStore, auditStore)
	}
	a.publisher = auditpublisher.NewPublisher(sink,
		auditpublisher.WithAsyncBuffer(cfg.Audit.PublishBuffer),
		auditpublisher.WithMetrics(auditMx),
		auditpublisher.WithPublisherLogger(log),
	)
	auditLogger := audit.NewLogger(log, a.publisher)

	// Course catalog, optionally backed by the remote registry. Spans go
	// to the global otel provider when tracing is on, nowhere otherwise.
	var catalogTracer tracer.Tracer = tracer.NewNoop()
	if cfg.Server.TracingEnabled {
		catalogTracer = tracer.NewOTel()
	}
	catalogMx := catalogmetrics.New()
	catalogOpts := []catalogservice.Option{
		catalogservice.WithMetrics(catalogMx),
		catalogservice.WithLogger(log),
		catalogservice.WithAuditLogger(auditLogger),
		catalogservice.WithTracer(catalogTracer),
	}
	var registry *client.Client
	if cfg.Registry.BaseURL != "" {
		sources := []client.Source{
			client.NewHTTPSource(cfg.Registry.BaseURL, "", cfg.Registry.RequestTimeout),
		}
		if cfg.Registry.FallbackURL != "" {
			sources = append(sources, client.NewHTTPSource(
				cfg.Registry.FallbackURL, "", cfg.Registry.RequestTimeout,
				client.WithSourceID("course-registry-fallback"),
			))
		}

		var regCache client.Cache
		if redisClient != nil {
			regCache = cache.NewRedisCache(redisClient.Client, cfg.Registry.CacheTTL, catalogMx)
		} else {
			regCache = cache.NewInMemoryCache(cfg.Registry.CacheTTL)
		}

		registry = client.New(sources,
			client.WithCache(regCache),
			client.WithBreaker(circuit.New("course-registry")),
			client.WithTimeout(cfg.Registry.RequestTimeout),
			client.WithMetrics(catalogMx),
			client.WithLogger(log),
			client.WithTracer(catalogTracer),
		)
		catalogOpts = append(catalogOpts, catalogservice.WithRegistry(registry))
	}
	catalogSvc := catalogservice.New(courseStore, catalogOpts...)

	// Rule engine, fed by the catalog through the provider port.
	evalSvc := evaluation.New(evaladapters.NewCatalogAdapter(catalogSvc),
		evaluation.WithMetrics(evalmetrics.New()),
		evaluation.WithLogger(log),
		evaluation.WithTimeout(cfg.Evaluation.RequestTimeout),
	)

	// Students.
	studentSvc := studentservice.New(studentCrud, evalSvc,
		studentservice.WithLogger(log),
		studentservice.WithAuditLogger(auditLogger),
		studentservice.WithRecordTx(studentservice.NewShardedRecordTx(studentCrud)),
	)

	// Auth.
	jwtSvc := jwttoken.NewJWTService(
		cfg.Auth.JWTSigningKey,
		"gradus",
		"gradus-client",
		cfg.Auth.AccessTokenTTL,
	)
	authSvc := authservice.New(studentSvc, jwtSvc, sessions, refreshTokens,
		authservice.WithLogger(log),
		authservice.WithAuditLogger(auditLogger),
		authservice.WithMetrics(authmetrics.New()),
		authservice.WithRevocationList(trl),
		authservice.WithSessionTTL(cfg.Auth.SessionTTL),
		authservice.WithRefreshTTL(cfg.Auth.RefreshTokenTTL),
	)
	cleanupSvc, err := cleanup.New(sessionSweep, refreshSweep, trlSweep,
		cleanup.WithCleanupLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("cleanup worker: %w", err)
	}
	a.cleanup = cleanupSvc

	// Timetables, validated against the catalog.
	timetableSvc := timetableservice.New(timetableStore, catalogSvc,
		timetableservice.WithLogger(log),
		timetableservice.WithAuditLogger(auditLogger),
	)

	// Rate limiting: Redis when available so instances share windows.
	var rlStore ratelimit.Store
	if redisClient != nil {
		rlStore = ratelimit.NewRedis(redisClient.Client)
	} else {
		rlStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(rlStore,
		ratelimit.WithLogger(log),
		ratelimit.WithAuditLogger(auditLogger),
		ratelimit.WithPolicy(ratelimit.ScopeAuth, ratelimit.Policy{
			Limit:  cfg.RateLimit.AuthLimit,
			Window: cfg.RateLimit.AuthWindow,
		}),
		ratelimit.WithPolicy(ratelimit.ScopeEvaluation, ratelimit.Policy{
			Limit:  cfg.RateLimit.EvaluationLimit,
			Window: cfg.RateLimit.EvaluationWindow,
		}),
	)

	// Health checks for everything that can be down.
	healthHandler := health.New(cfg.Server.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(checkCtx)
		})
	}
	if registry != nil {
		healthHandler.RegisterCheck("course_registry", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return registry.Health(checkCtx)
		})
	}
	if cfg.Kafka.Enabled() {
		kafkaCheck := kafka.NewHealthChecker(cfg.Kafka.Brokers)
		healthHandler.RegisterCheck("kafka", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return kafkaCheck.Check(checkCtx)
		})
	}

	if cfg.Seed {
		if err := seeder.New(courseSeed, studentSeed, log).SeedAll(ctx); err != nil {
			return nil, fmt.Errorf("seeding: %w", err)
		}
	}

	a.router = newRouter(routerDeps{
		logger:       log,
		cfg:          cfg,
		health:       healthHandler,
		limiter:      limiter,
		jwtValidator: jwttoken.NewJWTServiceAdapter(jwtSvc),
		trl:          trl,
		catalog:      cataloghandler.New(catalogSvc, log),
		evaluation:   evalhandler.New(evalSvc, log),
		student:      studenthandler.New(studentSvc, log),
		auth:         authhandler.New(authSvc, log),
		timetable:    timetablehandler.New(timetableSvc, log),
	})
	return a, nil
}

// startWorkers launches the background loops that run for the life of the
// process.
func (a *app) startWorkers(ctx context.Context) {
	if a.outboxWorker != nil {
		a.outboxWorker.Start()
	}
	if a.auditConsumer != nil {
		a.auditConsumer.Start()
	}
	go func() {
		if err := a.cleanup.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("cleanup worker stopped", "error", err)
		}
	}()
}

// shutdown stops workers before closing the resources they write to:
// outbox worker and consumer first so in-flight events land, then the
// publisher drain, then connections.
func (a *app) shutdown(ctx context.Context) {
	if a.outboxWorker != nil {
		if err := a.outboxWorker.Stop(ctx); err != nil {
			a.logger.Error("outbox worker stop failed", "error", err)
		}
	}
	if a.auditConsumer != nil {
		if err := a.auditConsumer.Stop(ctx); err != nil {
			a.logger.Error("audit consumer stop failed", "error", err)
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close failed", "error", err)
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Error("database close failed", "error", err)
		}
	}
}
