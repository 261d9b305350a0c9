package router

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API and never requires a token
const HealthPath = "/health"

// EngineConfig carries everything NewEngine wires into the gin engine
type EngineConfig struct {
	HTTP          config.HTTPConfig
	JWTService    *auth.JWTService
	ImportHandler *handler.ImportHandler
	SystemHandler *handler.SystemHandler
	// ImportLimiter throttles the import endpoint; nil disables throttling
	ImportLimiter *middleware.RateLimiter
	// TracingServiceName enables a server span per request; empty disables tracing
	TracingServiceName string
	Logger             *zap.Logger
}

// NewEngine builds the gin engine with the middleware stack and all routes.
// Middleware order: tracing, request ID, recovery, access log, security headers, CORS, body limit, timeout.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	if cfg.TracingServiceName != "" {
		engine.Use(otelgin.Middleware(cfg.TracingServiceName))
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SecureHeaders())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	if cfg.SystemHandler != nil {
		engine.GET(HealthPath, cfg.SystemHandler.Health)
	}

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService: cfg.JWTService,
		SkipPaths:  []string{HealthPath},
		Logger:     log,
	}))

	if cfg.ImportHandler != nil {
		importChain := []gin.HandlerFunc{middleware.RequireRoles(cfg.JWTService, auth.RoleAdmin, auth.RoleVendor)}
		if cfg.ImportLimiter != nil {
			importChain = append(importChain, middleware.RateLimit(cfg.ImportLimiter))
		}
		importChain = append(importChain, cfg.ImportHandler.ImportProduct)

		products := NewDomainGroup("products", "/products")
		products.POST("/import", importChain...)
		r.Register(products)
	}

	r.Setup()
	return engine
}
