package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/signal"
	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/internal/storage/memory"
	pgstore "github.com/utafrali/storefront/internal/storage/postgres"
	redisstore "github.com/utafrali/storefront/internal/storage/redis"
	"github.com/utafrali/storefront/internal/store"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const (
	serviceName    = "storefront"
	serviceVersion = "0.1.0"
	relayBuffer    = 256
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	tracerShutdown func(context.Context) error

	relay    *event.Relay
	producer *pkgkafka.Producer
	purger   *pgstore.Storage

	// closers release storage connections, in order.
	closers     []func()
	closing     chan struct{}
	closingOnce sync.Once
	wg          sync.WaitGroup
	stop        context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
		closing:        make(chan struct{}),
	}

	// Client storage.
	backend, err := a.openStorage(ctx)
	if err != nil {
		a.closeStorage()
		return nil, err
	}
	clientStorage := storage.NewResilient(backend, logger,
		storage.WithShadowLimit(cfg.ShadowLimit),
		storage.WithShadowTTL(cfg.ShadowTTL),
	)

	// Build the dependency graph.
	bus := signal.NewBus()
	cartStore := store.NewCartStore(clientStorage, bus, logger)
	wishlistStore := store.NewWishlistStore(clientStorage, logger)
	session := store.NewSessionFlag(clientStorage, bus, logger)

	catalogClient := catalog.New(catalog.Config{
		BaseURL:    cfg.CatalogBaseURL,
		Timeout:    cfg.CatalogTimeout,
		MaxRetries: cfg.CatalogMaxRetries,
		RPS:        cfg.CatalogRPS,
		Burst:      cfg.CatalogBurst,
	}, logger)
	views := view.NewService(catalogClient, cartStore, wishlistStore, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("storage", clientStorage.Ping)
	healthHandler.RegisterNonCritical("catalog", catalogClient.Check)

	// Kafka relay, only when brokers are configured.
	if cfg.RelayEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.relay = event.NewRelay(a.producer, logger, relayBuffer)
		a.relay.Attach(bus)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka relay enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	var pprofCIDRs []string
	if cfg.PprofEnabled {
		pprofCIDRs = cfg.PprofAllowedCIDRs
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(handler.Deps{
		Catalog:    catalogClient,
		Views:      views,
		Cart:       cartStore,
		Wishlist:   wishlistStore,
		Session:    session,
		Bus:        bus,
		Health:     healthHandler,
		Logger:     logger,
		CORS:       cors,
		PprofCIDRs: pprofCIDRs,
		Closing:    a.closing,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStorage connects the configured storage driver.
func (a *App) openStorage(ctx context.Context) (storage.Storage, error) {
	cfg := a.cfg
	switch cfg.StorageDriver {
	case config.DriverRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				a.logger.Error("redis close error", slog.String("error", err.Error()))
			}
		})
		a.logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		return redisstore.New(rdb, cfg.StorageTTL()), nil

	case config.DriverPostgres:
		pgCfg := cfg.Postgres()
		pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}

		// Run database migrations.
		if err := database.RunMigrations(ctx, pool, pgstore.Migrations(), a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")

		s := pgstore.New(pool, cfg.StorageTTL())
		if cfg.StorageTTLHours > 0 && cfg.PurgeIntervalMins > 0 {
			a.purger = s
		}
		return s, nil

	default:
		a.logger.Warn("using in-memory client storage; state is lost on restart")
		return memory.New(), nil
	}
}

// Run starts the HTTP server and background workers, and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	workCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	a.stop = stop

	if a.relay != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.relay.Run(workCtx)
		}()
	}
	if a.purger != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.purgeExpired(workCtx)
		}()
	}

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// purgeExpired deletes expired rows from the postgres driver on an interval.
func (a *App) purgeExpired(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(a.cfg.PurgeIntervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.purger.PurgeExpired(ctx)
			if err != nil {
				a.logger.WarnContext(ctx, "purge expired client state failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.InfoContext(ctx, "purged expired client state", slog.Int64("rows", n))
			}
		}
	}
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests, end event streams)
// 2. Background workers (the relay drains queued signals)
// 3. Tracer (flush pending spans)
// 4. Kafka producer
// 5. Storage connections
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. End event streams, then drain in-flight HTTP requests (10s budget).
	a.closingOnce.Do(func() { close(a.closing) })
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Stop workers after the last request has published its signals.
	if a.stop != nil {
		a.stop()
	}
	a.wg.Wait()

	// 3. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close storage connections.
	a.closeStorage()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeStorage() {
	for _, c := range a.closers {
		c()
	}
	a.closers = nil
}
