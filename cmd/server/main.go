package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	importapp "github.com/storefront/backend/internal/application/import"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/integration"
	"github.com/storefront/backend/internal/domain/partner"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/ecommerce"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/memory"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Storefront Product Import API
//	@version		1.0
//	@description	Imports marketplace listings into the storefront catalog

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// repositories are the catalog stores the import pipeline writes to
type repositories struct {
	categories catalog.CategoryRepository
	vendors    partner.VendorRepository
	products   catalog.ProductRepository
	health     handler.HealthCheck
	close      func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting product import service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	repos, err := openRepositories(&cfg.Database, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err != nil {
		log.Fatal("Failed to open catalog datastore", zap.Error(err))
	}
	defer func() {
		if err := repos.close(); err != nil {
			log.Error("Error closing datastore", zap.Error(err))
		}
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	importIndex := cache.NewImportIndex(startCtx, cfg.Redis, log)
	cancelStart()
	defer func() {
		_ = importIndex.Close()
	}()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(importapp.NewImportIndexHandler(importIndex, cfg.Import.IndexTTL))

	importService := importapp.NewImportService(
		newListingFetcher(cfg.Marketplace, log),
		repos.categories,
		repos.vendors,
		repos.products,
		importIndex,
		eventBus,
		importapp.ServiceConfig{
			AllowedDomains:  cfg.Marketplace.AllowedDomains,
			AdminWriteKey:   cfg.Catalog.AdminWriteKey,
			MaxSlugAttempts: cfg.Import.MaxSlugAttempts,
			IndexTTL:        cfg.Import.IndexTTL,
			Category: importapp.CategoryResolverConfig{
				SimilarityThreshold: cfg.Import.SimilarityThreshold,
				Keywords:            cfg.Import.CategoryKeywords,
				DefaultSlug:         cfg.Import.DefaultCategorySlug,
				DefaultName:         cfg.Import.DefaultCategoryName,
			},
			Vendor: importapp.VendorResolverConfig{
				DefaultName:  cfg.Import.DefaultVendorName,
				DefaultSlug:  cfg.Import.DefaultVendorSlug,
				DefaultEmail: cfg.Import.DefaultVendorEmail,
			},
		},
		log,
	)
	if cfg.Catalog.AdminWriteKey == "" {
		log.Warn("catalog.admin_write_key is not set; only previews will succeed")
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	if !jwtService.Enabled() {
		log.Warn("jwt.secret is not set; API authentication is disabled")
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var importLimiter *middleware.RateLimiter
	if cfg.HTTP.ImportRateLimit > 0 {
		importLimiter = middleware.NewRateLimiter(cfg.HTTP.ImportRateLimit, time.Minute)
		defer importLimiter.Stop()
		log.Info("Import rate limiting enabled", zap.Int("requests_per_minute", cfg.HTTP.ImportRateLimit))
	}

	checks := map[string]handler.HealthCheck{}
	if repos.health != nil {
		checks["database"] = repos.health
	}

	engineCfg := router.EngineConfig{
		HTTP:          cfg.HTTP,
		JWTService:    jwtService,
		ImportHandler: handler.NewImportHandler(importService),
		SystemHandler: handler.NewSystemHandler(cfg.App.Name, version, checks),
		ImportLimiter: importLimiter,
		Logger:        log,
	}
	if tracerProvider.IsEnabled() {
		engineCfg.TracingServiceName = cfg.Telemetry.ServiceName
	}
	engine := router.NewEngine(engineCfg)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// openRepositories opens the datastore selected by database.driver
func openRepositories(cfg *config.DatabaseConfig, tracing telemetry.DBTracingConfig, log *zap.Logger) (*repositories, error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory catalog datastore; imported products are lost on restart")
		store := memory.NewStore()
		return &repositories{
			categories: store.Categories(),
			vendors:    store.Vendors(),
			products:   store.Products(),
			close:      func() error { return nil },
		}, nil
	}

	db, err := persistence.NewDatabase(cfg, log, persistence.WithTracing(tracing))
	if err != nil {
		return nil, err
	}
	log.Info("Database connected", zap.String("driver", cfg.Driver))

	return &repositories{
		categories: persistence.NewGormCategoryRepository(db.DB),
		vendors:    persistence.NewGormVendorRepository(db.DB),
		products:   persistence.NewGormProductRepository(db.DB),
		health:     db.Ping,
		close:      db.Close,
	}, nil
}

// newListingFetcher returns the marketplace adapter, or a fetcher that reports
// the platform as not configured when credentials are missing
func newListingFetcher(cfg config.MarketplaceConfig, log *zap.Logger) integration.ListingFetcher {
	adapter, err := ecommerce.NewMarketplaceAdapter(ecommerce.NewMarketplaceConfig(cfg))
	if err != nil {
		log.Warn("Marketplace adapter not configured; imports will fail until it is",
			zap.String("platform", cfg.Platform),
			zap.Error(err),
		)
		return ecommerce.UnconfiguredFetcher{}
	}
	log.Info("Marketplace adapter ready",
		zap.String("platform", cfg.Platform),
		zap.String("api_base_url", cfg.APIBaseURL),
	)
	return adapter
}
