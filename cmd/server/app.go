package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	artikelhandler "metrologi/internal/artikel/handler"
	artikelservice "metrologi/internal/artikel/service"
	artikelstore "metrologi/internal/artikel/store"
	"metrologi/internal/audit"
	audithandler "metrologi/internal/audit/handler"
	authhandler "metrologi/internal/auth/handler"
	"metrologi/internal/auth/identity"
	authservice "metrologi/internal/auth/service"
	"metrologi/internal/auth/store/session"
	"metrologi/internal/auth/token"
	dashboardhandler "metrologi/internal/dashboard/handler"
	dashboardservice "metrologi/internal/dashboard/service"
	notifhandler "metrologi/internal/notifikasi/handler"
	notifmetrics "metrologi/internal/notifikasi/metrics"
	"metrologi/internal/notifikasi/scanner"
	notifservice "metrologi/internal/notifikasi/service"
	notifstore "metrologi/internal/notifikasi/store"
	pelakuhandler "metrologi/internal/pelakuusaha/handler"
	pelakuservice "metrologi/internal/pelakuusaha/service"
	pelakustore "metrologi/internal/pelakuusaha/store"
	"metrologi/internal/permohonan/controller"
	permohonanhandler "metrologi/internal/permohonan/handler"
	permohonanmetrics "metrologi/internal/permohonan/metrics"
	permohonanservice "metrologi/internal/permohonan/service"
	permohonanstore "metrologi/internal/permohonan/store"
	"metrologi/internal/platform/config"
	"metrologi/internal/platform/kafka"
	platformmetrics "metrologi/internal/platform/metrics"
	"metrologi/internal/platform/middleware"
	"metrologi/internal/platform/postgres"
	redisclient "metrologi/internal/platform/redis"
	"metrologi/internal/platform/tracing"
	"metrologi/pkg/platform/httputil"
	"metrologi/pkg/platform/middleware/metadata"
	"metrologi/pkg/platform/middleware/request"
	"metrologi/pkg/platform/middleware/requesttime"
)

const (
	auditBufferSize   = 256
	auditSinkFailures = 5
	auditSinkCooldown = 30 * time.Second
)

// stores groups the persistence backends selected by configuration.
type stores struct {
	permohonan interface {
		controller.Store
		dashboardservice.RequestStore
	}
	pelaku interface {
		pelakuservice.Store
		dashboardservice.BusinessStore
		scanner.BusinessSource
	}
	artikel  artikelservice.Store
	notif    notifservice.Store
	sessions authservice.SessionStore
}

// app owns every long-lived dependency of the process.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db    *sql.DB
	redis *redisclient.Client
	kafka *kgo.Client

	audit   *audit.Publisher
	scanner *scanner.Scanner
	router  http.Handler
}

// newApp connects the configured backends and wires every module. Backends
// with no configuration fall back to in-memory implementations.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: platformmetrics.NewRegistry()}

	var err error
	if a.db, err = postgres.Open(ctx, cfg.Database); err != nil {
		return nil, err
	}
	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		a.Close()
		return nil, err
	}
	if a.kafka, err = kafka.NewClient(ctx, cfg.Kafka); err != nil {
		a.Close()
		return nil, err
	}
	if a.kafka != nil {
		if err := kafka.EnsureTopic(ctx, a.kafka, cfg.Kafka); err != nil {
			a.Close()
			return nil, err
		}
	}

	auditOpts := []audit.Option{audit.WithLogger(logger), audit.WithAsyncBuffer(auditBufferSize)}
	if a.kafka != nil {
		sink := audit.NewKafkaSink(a.kafka, cfg.Kafka.AuditTopic)
		auditOpts = append(auditOpts, audit.WithSink(audit.NewBreakerSink(sink, auditSinkFailures, auditSinkCooldown)))
	}
	var auditStore audit.Store = audit.NewInMemoryStore()
	if a.db != nil {
		auditStore = audit.NewPostgresStore(a.db)
	}
	a.audit = audit.NewPublisher(auditStore, auditOpts...)

	st := a.stores()
	logger.InfoContext(ctx, "backends selected",
		"postgres", a.db != nil,
		"redis", a.redis != nil,
		"kafka", a.kafka != nil,
	)

	router, err := a.wire(st)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.router = router
	return a, nil
}

func (a *app) stores() stores {
	var st stores
	if a.db != nil {
		st.permohonan = permohonanstore.NewPostgres(a.db)
		st.pelaku = pelakustore.NewPostgres(a.db)
		st.artikel = artikelstore.NewPostgres(a.db)
		st.notif = notifstore.NewPostgres(a.db)
	} else {
		st.permohonan = permohonanstore.NewInMemory()
		st.pelaku = pelakustore.NewInMemory()
		st.artikel = artikelstore.NewInMemory()
		st.notif = notifstore.NewInMemory()
	}
	if a.redis != nil {
		st.sessions = session.NewRedis(a.redis.Client)
	} else {
		st.sessions = session.New()
	}
	return st
}

func (a *app) wire(st stores) (http.Handler, error) {
	cfg, logger := a.cfg, a.logger

	notifMetrics := notifmetrics.NewWithRegistry(a.registry)
	notifications := notifservice.New(st.notif,
		notifservice.WithLogger(logger),
		notifservice.WithMetrics(notifMetrics),
	)
	a.scanner = scanner.New(st.pelaku, notifications,
		scanner.WithLogger(logger),
		scanner.WithWarningWindow(cfg.Scanner.WarningWindow),
		scanner.WithMetrics(notifMetrics),
		scanner.WithAuditPublisher(a.audit),
	)

	lifecycle := controller.New(st.permohonan,
		controller.WithLogger(logger),
		controller.WithMetrics(permohonanmetrics.NewWithRegistry(a.registry)),
		controller.WithTracer(tracing.Tracer("permohonan")),
	)
	permohonan := permohonanservice.New(lifecycle,
		permohonanservice.WithLogger(logger),
		permohonanservice.WithAuditPublisher(a.audit),
		permohonanservice.WithNewRequestNotifier(notifications),
		permohonanservice.WithDefaultPageSize(cfg.DefaultPageSize),
	)
	pelaku := pelakuservice.New(st.pelaku,
		pelakuservice.WithLogger(logger),
		pelakuservice.WithAuditPublisher(a.audit),
	)
	artikel := artikelservice.New(st.artikel,
		artikelservice.WithLogger(logger),
		artikelservice.WithAuditPublisher(a.audit),
	)
	dashboard := dashboardservice.New(st.pelaku, st.permohonan, dashboardservice.WithLogger(logger))

	if cfg.Auth.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is not set; admin sign-in is disabled")
	}
	auth, err := authservice.New(st.sessions,
		identity.NewStaticProvider(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash),
		token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer),
		authservice.WithLogger(logger),
		authservice.WithAuditPublisher(a.audit),
		authservice.WithSessionTTL(cfg.Auth.SessionTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("build auth service: %w", err)
	}

	httpMetrics := platformmetrics.NewWithRegistry(a.registry)
	authHandler := authhandler.New(auth, logger)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(logger))
	r.Use(request.Logger(logger))
	r.Use(httpMetrics.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", platformmetrics.Handler(a.registry))
	}
	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Get("/healthz", a.handleHealth)
		authHandler.Register(r)
		artikelhandler.New(artikel, logger).RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(auth, logger))
			authHandler.RegisterProtected(r)
			permohonanhandler.New(permohonan, logger).Register(r)
			pelakuhandler.New(pelaku, logger).Register(r)
			artikelhandler.New(artikel, logger).Register(r)
			notifhandler.New(notifications, logger).Register(r)
			dashboardhandler.New(dashboard, logger).Register(r)
			audithandler.New(a.audit, logger).Register(r)
		})
	})
	return r, nil
}

type healthResponse struct {
	Status   string            `json:"status"`
	Backends map[string]string `json:"backends,omitempty"`
}

// handleHealth pings every configured backend. Any failure reports 503.
func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := healthResponse{Status: "ok", Backends: map[string]string{}}
	check := func(name string, ping func(context.Context) error) {
		if err := ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Backends[name] = err.Error()
			return
		}
		resp.Backends[name] = "ok"
	}
	if a.db != nil {
		check("postgres", a.db.PingContext)
	}
	if a.redis != nil {
		check("redis", a.redis.Health)
	}
	if a.kafka != nil {
		check("kafka", a.kafka.Ping)
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Close flushes audit events and releases backends in reverse order of
// acquisition.
func (a *app) Close() error {
	var errs []error
	if a.audit != nil {
		a.audit.Close()
	}
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
