package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/exohunter-go/internal/api"
	"github.com/irfndi/exohunter-go/internal/api/handlers"
	"github.com/irfndi/exohunter-go/internal/cache"
	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/database"
	"github.com/irfndi/exohunter-go/internal/logging"
	"github.com/irfndi/exohunter-go/internal/middleware"
	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/internal/telemetry"
	"github.com/irfndi/exohunter-go/pkg/agents"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

const serviceName = "exohunter-go"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	stdLogger, otlpLogger := logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == telemetry.ExporterOTLP,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.LogLevel,
	})
	telemetry.SetLogger(stdLogger.Logger())

	if err := telemetry.InitTelemetry(telemetryConfig(cfg)); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(); err != nil {
			stdLogger.WithError(err).Error("Failed to shutdown telemetry")
		}
		if otlpLogger != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otlpLogger.Shutdown(ctx)
		}
	}()

	logger := logging.NewLogrus(cfg.LogLevel)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra := connectInfrastructure(ctx, cfg, logger)
	defer infra.Close()

	monitor := services.NewSystemMonitor(60)
	deps := buildDependencies(ctx, cfg, infra, monitor, logger)
	router := newRouter(cfg, deps)

	go monitor.Run(ctx, time.Minute, stdLogger)

	srv := newHTTPServer(cfg, router)
	serverErr := make(chan error, 1)
	go func() {
		stdLogger.LogStartup(serviceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	stdLogger.LogShutdown(serviceName, "signal received")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

func telemetryConfig(cfg *config.Config) telemetry.TelemetryConfig {
	tc := *telemetry.DefaultConfig()
	tc.Enabled = cfg.Telemetry.Enabled
	tc.Exporter = cfg.Telemetry.Exporter
	tc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tc.ServiceName = cfg.Telemetry.ServiceName
	tc.ServiceVersion = cfg.Telemetry.ServiceVersion
	tc.Environment = cfg.Environment
	tc.SampleRate = cfg.Telemetry.SampleRate
	tc.LogLevel = cfg.Telemetry.LogLevel
	return tc
}

// infrastructure holds the optional backing stores. Either field may be nil
// when the store is not configured or unreachable at startup.
type infrastructure struct {
	db    *database.PostgresDB
	redis *database.RedisClient
}

func connectInfrastructure(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *infrastructure {
	infra := &infrastructure{}

	if cfg.Database.Host != "" || cfg.Database.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(ctx, &cfg.Database)
		if err != nil {
			logger.WithError(err).Warn("PostgreSQL unavailable, analysis reports are kept in memory")
		} else {
			infra.db = db
		}
	}

	if cfg.Redis.Host != "" {
		redisClient, err := database.NewRedisConnection(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, archive lookups are cached in memory")
		} else {
			infra.redis = redisClient
		}
	}
	return infra
}

// reportStore prefers PostgreSQL and falls back to memory when the schema
// cannot be created.
func (i *infrastructure) reportStore(ctx context.Context, logger *logrus.Logger) services.ReportStore {
	if i.db == nil {
		return services.NewMemoryReportStore()
	}
	repo := database.NewReportRepository(database.NewTracedDB(i.db.Pool))
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("Report schema unavailable, analysis reports are kept in memory")
		return services.NewMemoryReportStore()
	}
	return repo
}

func (i *infrastructure) archiveCache(ttl time.Duration, logger *logrus.Logger) cache.ArchiveCache {
	if i.redis == nil {
		return cache.NewArchiveCache(nil, ttl, logger)
	}
	return cache.NewArchiveCache(i.redis.Client, ttl, logger)
}

// healthCheckers returns untyped nils for missing stores so the health
// handler reports them as disabled.
func (i *infrastructure) healthCheckers() (db, redis handlers.HealthChecker) {
	if i.db != nil {
		db = i.db
	}
	if i.redis != nil {
		redis = i.redis
	}
	return db, redis
}

func (i *infrastructure) Close() {
	if i.redis != nil {
		i.redis.Close()
	}
	if i.db != nil {
		i.db.Close()
	}
}

func buildDependencies(ctx context.Context, cfg *config.Config, infra *infrastructure, monitor *services.SystemMonitor, logger *logrus.Logger) api.Dependencies {
	notifier := services.NewNotificationService(cfg.Telegram, cfg.LightCurve.NotifySignificance, logger)

	var agentsClient handlers.AgentsClient
	var classifier services.Classifier
	if cfg.Agents.ServiceURL != "" {
		client := agents.NewClient(cfg.Agents.ClientOptions(), logger)
		agentsClient = client
		classifier = client
	}

	db, redis := infra.healthCheckers()
	return api.Dependencies{
		LightCurves: services.NewLightCurveService(cfg.LightCurve, infra.reportStore(ctx, logger), notifier, classifier, logger),
		Exoplanets: services.NewExoplanetService(
			nasa.NewClient(cfg.NASA.ClientOptions(), logger),
			infra.archiveCache(cfg.NASA.GetCacheTTL(), logger),
			logger,
		),
		Monitor:         monitor,
		Agents:          agentsClient,
		DB:              db,
		Redis:           redis,
		Auth:            middleware.NewAuthMiddleware(cfg.Security.JWTSecret),
		Admin:           middleware.NewAdminMiddleware(cfg.Security.AdminAPIKeyHash),
		TelegramEnabled: notifier.Enabled(),
		MaxUploadBytes:  cfg.LightCurve.MaxUploadBytes(),
		Version:         cfg.Telemetry.ServiceVersion,
	}
}

func newRouter(cfg *config.Config, deps api.Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.TelemetryMiddleware())
	router.MaxMultipartMemory = 8 << 20

	api.SetupRoutes(router, deps)
	return router
}

func durationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// newHTTPServer applies the configured timeouts. Uploads of up to the
// configured size need a generous read timeout.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       durationOr(cfg.Server.ReadTimeout, 60*time.Second),
		WriteTimeout:      durationOr(cfg.Server.WriteTimeout, 60*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
