package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	debtapp "github.com/ech/backend/internal/application/debt"
	docapp "github.com/ech/backend/internal/application/document"
	identityapp "github.com/ech/backend/internal/application/identity"
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/application/report"
	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/ech/backend/internal/infrastructure/auth"
	"github.com/ech/backend/internal/infrastructure/cache"
	"github.com/ech/backend/internal/infrastructure/config"
	"github.com/ech/backend/internal/infrastructure/event"
	"github.com/ech/backend/internal/infrastructure/logger"
	"github.com/ech/backend/internal/infrastructure/migration"
	"github.com/ech/backend/internal/infrastructure/notify"
	"github.com/ech/backend/internal/infrastructure/persistence"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/ech/backend/internal/infrastructure/storage"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/ech/backend/internal/interfaces/http/handler"
	"github.com/ech/backend/internal/interfaces/http/middleware"
	"github.com/ech/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			ECH Back Office API
//	@version		1.0
//	@description	Cash register, debts, projects and commercial documents.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting cash register backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		ServiceVersion:  version,
		Endpoint:        cfg.Telemetry.CollectorEndpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Traces:          cfg.Telemetry.Enabled,
		SamplingRatio:   cfg.Telemetry.SamplingRatio,
		SpanProfiles:    cfg.Telemetry.ProfilingEnabled,
		Metrics:         cfg.Telemetry.MetricsEnabled,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
		Logs:            cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer shutdown(log, "telemetry", providers.Shutdown)
	// zap output is teed to the collector when log export is on
	log = providers.BridgeLogger(log, zapcore.InfoLevel)

	stopProfiler, err := telemetry.StartProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
		Tags:            map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		defer func() { _ = stopProfiler() }()
	}

	// Apply schema migrations before the pool is opened
	if cfg.Database.AutoMigrate {
		if err := migration.ApplyEmbedded(cfg.Database.DSN(), log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Initialize database connection with a zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithConflictClassifier(persistence.IsRetryable),
	)
	db, err := persistence.OpenDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.InstrumentDatabase(db.DB, telemetry.DatabaseConfig{
		Tracing:   cfg.Telemetry.DBTraceEnabled,
		FullSQL:   cfg.Telemetry.DBLogFullSQL,
		SlowQuery: cfg.Telemetry.DBSlowQueryThresh,
		DBName:    cfg.Database.DBName,
	}, providers.Meter("ech/database"), log); err != nil {
		log.Warn("Database instrumentation unavailable", zap.Error(err))
	}

	// Shared stores: Redis when enabled, process memory otherwise
	stores, err := cache.NewFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if stores.Redis != nil {
		revocations = auth.NewRedisRevocationStore(stores.Redis)
	}

	// Repositories and transaction scope
	reads := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB, log).WithMaxAttempts(cfg.Ledger.MaxRetryAttempts)

	// Application services
	ledgerService := ledgerapp.NewCashLedgerService(scope, reads, ledgerapp.Config{
		ReferencePrefix: cfg.Ledger.ReferencePrefix,
	}, log)
	debtService := debtapp.NewService(reads, log)
	projectService := projectapp.NewService(scope, reads, log)
	documentService := docapp.NewService(scope, reads, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(persistence.NewGormUserRepository(db.DB), jwtService, revocations, log)
	userService := identityapp.NewUserService(persistence.NewGormUserRepository(db.DB), authService, log)

	// Startup writes run once across instances
	if err := bootstrap(ctx, stores.Locker, ledgerService, userService, cfg.Bootstrap); err != nil {
		log.Fatal("Failed to bootstrap", zap.Error(err))
	}

	if providers.MetricsEnabled() {
		ledgerMetrics, err := telemetry.NewLedgerMetrics(providers.Meter("ech/ledger"), telemetry.NewGormLedgerSnapshot(db.DB), log)
		if err != nil {
			log.Warn("Ledger metrics unavailable", zap.Error(err))
		} else {
			ledgerService.SetMetrics(ledgerMetrics)
		}
	}

	// Event bus: committed ledger and project events reach the websocket hub
	eventBus := event.NewInMemoryEventBus(log, cfg.Notify.BufferSize)
	hub := notify.NewHub(notify.Config{
		MaxClients:     cfg.Notify.MaxClients,
		PingInterval:   cfg.Notify.PingInterval,
		AllowedOrigins: cfg.Notify.AllowedOrigins,
	}, func(ctx context.Context) (valueobject.Money, time.Time, error) {
		b, err := ledgerService.Balance(ctx)
		if err != nil {
			return valueobject.Zero(), time.Time{}, err
		}
		return b.Balance, b.UpdatedAt, nil
	}, log)
	eventBus.Subscribe(hub)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	defer hub.Close()
	ledgerService.SetEventPublisher(eventBus)
	projectService.SetEventPublisher(eventBus)

	// Reports: PDF rendering and archiving are optional
	engine, err := printing.NewTemplateEngine()
	if err != nil {
		log.Fatal("Failed to load report templates", zap.Error(err))
	}
	var renderer printing.PDFRenderer
	if cfg.Printing.Enabled {
		chrome := printing.NewChromedpRenderer(printing.ChromedpConfigFrom(cfg.Printing, log))
		defer func() { _ = chrome.Close() }()
		renderer = chrome
	}
	var archive storage.Archive
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Archive(cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize report archive", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Report bucket unavailable, archiving will fail until it exists", zap.String("bucket", s3.Bucket()), zap.Error(err))
		}
		cancel()
		archive = s3
	}
	reportService := report.NewService(report.Deps{
		Ledger:    ledgerService,
		Projects:  projectService,
		Debts:     debtService,
		Documents: documentService,
		Engine:    engine,
		Renderer:  renderer,
		Archive:   archive,
	}, report.Config{
		Organization:   cfg.Printing.Organization,
		ArchiveReports: cfg.Printing.ArchiveReports,
	}, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	ginEngine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := ginEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing, metrics and profile labels - when enabled
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	ginEngine.Use(middleware.RequestID(log))
	ginEngine.Use(logger.Recovery(log))
	if cfg.Telemetry.Enabled {
		ginEngine.Use(middleware.Tracing(cfg.Telemetry.ServiceName)...)
	}
	if providers.MetricsEnabled() {
		ginEngine.Use(middleware.HTTPMetrics(providers.Meter("ech/http")))
	}
	if cfg.Telemetry.ProfilingEnabled {
		ginEngine.Use(middleware.ProfileLabels("/health", "/api/v1/health", "/ws/", "/swagger/"))
	}
	ginEngine.Use(logger.AccessLog(log, "/health", "/api/v1/health"))
	ginEngine.Use(middleware.Secure())
	ginEngine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{handler.DocumentURLHeader},
	}))
	ginEngine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		ginEngine.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	checks := []handler.HealthCheck{{Name: "database", Check: db.PingContext}}
	if stores.Redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return stores.Redis.Ping(ctx).Err()
		}})
	}

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
	}

	router.Mount(ginEngine, router.Handlers{
		Health:        handler.NewHealthHandler(version, checks...),
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(userService),
		Caisse:        handler.NewCaisseHandler(ledgerService, reportService),
		Debt:          handler.NewDebtHandler(debtService, ledgerService, reportService),
		Project:       handler.NewProjectHandler(projectService, reportService),
		Revenue:       handler.NewRevenueHandler(projectService),
		Document:      handler.NewDocumentHandler(documentService, reportService),
		Notifications: handler.NewNotificationHandler(hub),
	}, router.Options{
		Authenticator:    authService,
		IdempotencyStore: stores.Idempotency,
		IdempotencyTTL:   cfg.Ledger.IdempotencyTTL,
		AuthLimiter:      authLimiter,
		RequestTimeout:   cfg.HTTP.WriteTimeout,
		Logger:           log,
	})
	log.Debug("Routes mounted", zap.Strings("routes", router.RouteTable(ginEngine)))

	// The websocket outlives WriteTimeout, so the server sets no write deadline
	// and API requests are bounded by the timeout middleware instead.
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           ginEngine,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// bootstrap creates the cash account and the first administrator while
// holding a cluster wide lock
func bootstrap(ctx context.Context, locker cache.Locker, ledger *ledgerapp.CashLedgerService, users *identityapp.UserService, cfg config.BootstrapConfig) error {
	release, err := locker.Obtain(ctx, "bootstrap", time.Minute, 30*time.Second)
	if err != nil {
		return err
	}
	defer release()

	if err := ledger.Initialize(ctx); err != nil {
		return err
	}
	return users.Bootstrap(ctx, cfg.AdminUsername, cfg.AdminPassword)
}

func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
