package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/catalogadmin/internal/config"
	"github.com/utafrali/catalogadmin/internal/effect"
	"github.com/utafrali/catalogadmin/internal/event"
	handler "github.com/utafrali/catalogadmin/internal/handler/http"
	"github.com/utafrali/catalogadmin/internal/persistence"
	"github.com/utafrali/catalogadmin/internal/repository/postgres"
	"github.com/utafrali/catalogadmin/internal/service"
	"github.com/utafrali/catalogadmin/internal/session"
	"github.com/utafrali/catalogadmin/internal/store"
	"github.com/utafrali/catalogadmin/migrations"
	"github.com/utafrali/catalogadmin/pkg/database"
	"github.com/utafrali/catalogadmin/pkg/health"
	pkgkafka "github.com/utafrali/catalogadmin/pkg/kafka"
	"github.com/utafrali/catalogadmin/pkg/middleware"
	"github.com/utafrali/catalogadmin/pkg/tracing"
)

// App wires together all dependencies and runs the catalog admin dashboard.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	sessions       *session.Manager
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.Init(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, shutdownTracer: shutdownTracer}
	if err := a.build(ctx); err != nil {
		a.closeResources(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	reg.MustRegister(database.NewPoolStatsCollector(pool, cfg.ServiceName))

	// Redis backs view-mode preferences.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = redisClient
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	preferences := persistence.NewRedisService(redisClient, cfg.Persistence(), logger, persistence.NewMetrics(reg))

	// Kafka
	var publisher service.EventPublisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(cfg.Kafka(), logger)
		publisher = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("kafka disabled, product deletions will not be published")
	}

	repo := postgres.NewProductRepository(pool)
	productService := service.NewProductService(repo, publisher, logger)

	a.sessions = session.NewManager(session.Deps{
		Catalog: productService,
		Storage: func(ns string) persistence.Service {
			return preferences.WithNamespace(ns)
		},
		Products: effect.ProductsConfig{
			PageSize: cfg.PageSize,
			TopLimit: cfg.TopProductsLimit,
		},
		StoreMetrics:  store.NewMetrics(reg),
		EffectMetrics: effect.NewMetrics(reg),
		Logger:        logger,
	}, session.Config{IdleTimeout: cfg.SessionIdleTimeout}, reg)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", preferences.Ping)
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		Products:    productService,
		Sessions:    a.sessions,
		Health:      healthHandler,
		Metrics:     middleware.NewHTTPMetrics(reg, cfg.ServiceName),
		Gatherer:    reg,
		Validate:    middleware.HMACValidator(cfg.JWTSecret),
		CORS:        cors,
		RateLimit:   cfg.RateLimitRequests,
		RateWindow:  cfg.RateLimitWindow,
		Logger:      logger,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.logger.Info("shutdown signal received")
		}
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components. Sessions close before the pool
// so in-flight effects finish against a live database.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.closeResources(shutdownCtx)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
