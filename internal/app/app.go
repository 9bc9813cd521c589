package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/regpulse-backend/internal/adapter/mailer"
	"github.com/heartmarshall/regpulse-backend/internal/adapter/postgres"
	auditrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/audit"
	contentrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/content"
	outboxrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/outbox"
	subscriptionrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/subscription"
	userrepo "github.com/heartmarshall/regpulse-backend/internal/adapter/postgres/user"
	"github.com/heartmarshall/regpulse-backend/internal/adapter/redis"
	"github.com/heartmarshall/regpulse-backend/internal/adapter/redis/filtercache"
	"github.com/heartmarshall/regpulse-backend/internal/auth"
	"github.com/heartmarshall/regpulse-backend/internal/config"
	"github.com/heartmarshall/regpulse-backend/internal/domain"
	"github.com/heartmarshall/regpulse-backend/internal/metrics"
	auditsvc "github.com/heartmarshall/regpulse-backend/internal/service/audit"
	authsvc "github.com/heartmarshall/regpulse-backend/internal/service/auth"
	"github.com/heartmarshall/regpulse-backend/internal/service/content"
	"github.com/heartmarshall/regpulse-backend/internal/service/notify"
	"github.com/heartmarshall/regpulse-backend/internal/service/subscription"
	"github.com/heartmarshall/regpulse-backend/internal/transport/middleware"
	"github.com/heartmarshall/regpulse-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL and (optionally) Redis, wires the services, and serves HTTP next
// to the notification worker until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck

	mail, err := mailer.New(cfg.Mail, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	wired := Wire(cfg, logger, Infra{Pool: pool, Redis: redisClient, Mail: mail})

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      wired.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return wired.Worker.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application stopped")
	return nil
}

// Infra is the external infrastructure the application runs on. Redis is
// nil when the filter cache is disabled.
type Infra struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Mail  mailer.Sender
}

// Wired is the assembled application: the HTTP handler with its middleware
// chain and the notification worker feeding on the outbox.
type Wired struct {
	Handler http.Handler
	Worker  *notify.Worker
	Metrics *metrics.Metrics
}

// Wire builds repositories, services and transport on top of infra.
func Wire(cfg *config.Config, logger *slog.Logger, infra Infra) *Wired {
	m := metrics.New()
	w := &Wired{Metrics: m}

	// Repositories
	users := userrepo.New(infra.Pool)
	records := contentrepo.New(infra.Pool)
	audits := auditrepo.New(infra.Pool)
	outbox := outboxrepo.New(infra.Pool)
	subs := subscriptionrepo.New(infra.Pool)
	tx := postgres.NewTxManager(infra.Pool)

	// Notification pipeline
	dispatcher := notify.NewDispatcher(logger, subs, infra.Mail, cfg.Notify.Concurrency, cfg.Notify.SendTimeout, m)
	w.Worker = notify.NewWorker(logger, outbox, dispatcher, cfg.Notify, m)

	// Services
	deps := content.Deps{
		Records: records,
		Audit:   audits,
		Outbox:  outbox,
		Tx:      tx,
		Worker:  w.Worker,
		Metrics: m,
	}
	if infra.Redis != nil {
		deps.Cache = filtercache.New(infra.Redis.Client, cfg.Redis.FilterTTL, logger, m)
	}
	contentService := content.NewService(logger, deps)

	authService := authsvc.NewService(logger, users,
		auth.NewHasher(cfg.Auth.PasswordHashCost),
		auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL),
	)
	auditService := auditsvc.NewService(logger, audits)
	subscriptionService := subscription.NewService(logger, subs)

	// Transport
	health := rest.NewHealthHandler(infra.Pool, nil, Version)
	if infra.Redis != nil {
		health = rest.NewHealthHandler(infra.Pool, infra.Redis, Version)
	}
	router := rest.NewRouter(rest.Handlers{
		Auth:          rest.NewAuthHandler(authService, logger),
		Content:       rest.NewContentHandler(contentService, logger),
		Audit:         rest.NewAuditHandler(auditService, logger),
		Notifications: rest.NewNotificationHandler(subscriptionService, logger),
		Health:        health,
		Metrics:       m.Handler(),
	})

	w.Handler = httpMiddleware(cfg, logger, authService, m)(router)

	return w
}

type actorResolver interface {
	ResolveActor(ctx context.Context, token string) (domain.Actor, error)
}

type httpRecorder interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// httpMiddleware wraps the router, outermost first. Auth runs inside the
// access log and the request deadline; Metrics must wrap the mux directly.
func httpMiddleware(cfg *config.Config, logger *slog.Logger, resolver actorResolver, rec httpRecorder) middleware.Middleware {
	return middleware.Chain(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Unless(middleware.IsProbe, middleware.Logger(logger)),
		middleware.BodyLimit(cfg.Server.MaxBodyBytes),
		middleware.Deadline(cfg.Server.RequestTimeout),
		middleware.Auth(resolver),
		middleware.Metrics(rec),
	)
}
