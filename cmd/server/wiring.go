package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"complaintdesk/internal/blob"
	complainthandler "complaintdesk/internal/complaint/handler"
	"complaintdesk/internal/complaint/ledger"
	complaintmetrics "complaintdesk/internal/complaint/metrics"
	"complaintdesk/internal/complaint/models"
	complaintservice "complaintdesk/internal/complaint/service"
	complaintstore "complaintdesk/internal/complaint/store"
	jwttoken "complaintdesk/internal/jwt_token"
	"complaintdesk/internal/notify"
	"complaintdesk/internal/officer"
	"complaintdesk/internal/platform/config"
	"complaintdesk/internal/platform/metrics"
	"complaintdesk/internal/platform/postgres"
	"complaintdesk/internal/platform/ratelimit"
	redisclient "complaintdesk/internal/platform/redis"
	"complaintdesk/internal/report/aggregate"
	reporthandler "complaintdesk/internal/report/handler"
	"complaintdesk/internal/report/performance"
	reportservice "complaintdesk/internal/report/service"
	reportstore "complaintdesk/internal/report/store"
	"complaintdesk/internal/report/window"
	"complaintdesk/pkg/platform/httputil"
	"complaintdesk/pkg/platform/middleware/auth"
	"complaintdesk/pkg/platform/middleware/metadata"
	"complaintdesk/pkg/platform/middleware/request"
	"complaintdesk/pkg/platform/middleware/requesttime"
	"complaintdesk/pkg/platform/tx"
)

// reportSource is satisfied by both report row sources.
type reportSource interface {
	aggregate.Source
	performance.Source
}

type backend struct {
	complaints complaintservice.ComplaintStore
	fines      ledger.FineStore
	tx         ledger.TxRunner
	officers   officer.Store
	reports    reportSource
	ping       func(context.Context) error
	close      func()
}

type app struct {
	router  http.Handler
	closers []func()
	checks  map[string]func(context.Context) error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// health reports 503 when any configured backing service fails its ping.
func (a *app) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(a.checks))
	code := http.StatusOK
	for name, check := range a.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	httputil.WriteJSON(w, code, status)
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{checks: make(map[string]func(context.Context) error)}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	loc, err := window.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, err
	}
	rejectPolicy, err := models.ParseRejectPolicy(cfg.Lifecycle.RejectPolicy)
	if err != nil {
		return nil, fmt.Errorf("REJECT_POLICY: %w", err)
	}
	assignPolicy, err := models.ParseAssignPolicy(cfg.Lifecycle.AssignPolicy)
	if err != nil {
		return nil, fmt.Errorf("ASSIGN_POLICY: %w", err)
	}

	be, err := openBackend(ctx, cfg.Database, loc, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, be.close)
	if be.ping != nil {
		a.checks["postgres"] = be.ping
	}

	limiter, closeLimiter, err := openLimiter(ctx, cfg.Redis, a.checks, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeLimiter)

	blobs, err := openBlobStore(ctx, cfg.Blob, log)
	if err != nil {
		return nil, err
	}

	notifier, closeNotifier := openNotifier(ctx, cfg.Kafka, log)
	a.closers = append(a.closers, closeNotifier)

	reg := metrics.NewRegistry()
	httpMetrics := metrics.New(reg)

	complaints := complaintservice.New(
		be.complaints,
		ledger.New(be.fines, be.tx, ledger.WithLogger(log)),
		blob.NewUploader(blobs),
		complaintservice.WithLogger(log),
		complaintservice.WithMetrics(complaintmetrics.New(reg)),
		complaintservice.WithNotifier(notifier),
		complaintservice.WithRejectPolicy(rejectPolicy),
		complaintservice.WithAssignPolicy(assignPolicy),
	)
	reports := reportservice.New(
		aggregate.New(be.reports, loc, aggregate.WithLogger(log)),
		performance.New(be.reports, be.officers, loc,
			performance.WithLogger(log),
			performance.WithSLADays(cfg.Reporting.SLADays),
		),
		reportservice.WithLogger(log),
	)

	jwt := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	publicLimit := ratelimit.NewMiddleware(limiter, "public_submit",
		cfg.Redis.PublicSubmitLimit, cfg.Redis.PublicSubmitWindow, log,
		ratelimit.WithRejectionCounter(httpMetrics),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(log))
	r.Use(request.Recovery(log))
	r.Use(request.Latency(httpMetrics))

	r.Get("/healthz", a.health)
	r.Handle("/metrics", metrics.Handler(reg))

	complaintHandler := complainthandler.New(complaints, log)
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		complaintHandler.RegisterPublic(r, publicLimit.Handler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwttoken.NewJWTServiceAdapter(jwt), log))
			complaintHandler.Register(r)
			officer.NewHandler(be.officers, log).Register(r)
			reporthandler.New(reports, log).Register(r)
		})
	})

	a.router = r
	ok = true
	return a, nil
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, loc *time.Location, log *slog.Logger) (*backend, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		cs := complaintstore.NewInMemory()
		return &backend{
			complaints: cs,
			fines:      cs,
			tx:         cs,
			officers:   officer.NewInMemory(),
			reports:    reportstore.NewMemory(cs, loc),
			close:      func() {},
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := postgres.Migrate(db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	cs := complaintstore.NewPostgres(db)
	return &backend{
		complaints: cs,
		fines:      cs,
		tx:         tx.NewRunner(db, cfg.TxTimeout),
		officers:   officer.NewPostgres(db),
		reports:    reportstore.NewPostgres(db, loc),
		ping:       db.PingContext,
		close: func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close database", "error", err)
			}
		},
	}, nil
}

func openLimiter(ctx context.Context, cfg config.RedisConfig, checks map[string]func(context.Context) error, log *slog.Logger) (ratelimit.Limiter, func(), error) {
	client, err := redisclient.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("REDIS_URL not set, public intake limiter is per process")
		return ratelimit.NewMemory(), func() {}, nil
	}
	checks["redis"] = client.Health
	return ratelimit.NewRedis(client, "complaintdesk:ratelimit"), func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis", "error", err)
		}
	}, nil
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig, log *slog.Logger) (blob.Store, error) {
	if cfg.Endpoint == "" {
		log.Warn("MINIO_ENDPOINT not set, attachments are kept in memory")
		return blob.NewMemory(), nil
	}
	return blob.NewMinio(ctx, cfg)
}

// openNotifier falls back to logging when Kafka is not configured or the
// notification topic cannot be prepared.
func openNotifier(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (complaintservice.Notifier, func()) {
	if len(cfg.Brokers) == 0 {
		return notify.NewLog(log), func() {}
	}
	kafka, err := notify.NewKafka(cfg, log)
	if err != nil {
		log.Error("kafka unavailable, logging notifications instead", "error", err)
		return notify.NewLog(log), func() {}
	}
	if err := kafka.EnsureTopic(ctx, int32(cfg.Partitions), int16(cfg.ReplicationFactor)); err != nil {
		log.Warn("failed to ensure notification topic", "topic", cfg.Topic, "error", err)
	}
	return kafka, kafka.Close
}
