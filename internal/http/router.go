// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, views and route handlers. It centralizes cross-cutting
// concerns such as tracing, correlation IDs, logging/redaction, panic
// recovery, metrics, compression, CORS, security headers and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup; all adapters injected through Deps
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/serverwatch/availability-watch/docs" // swagger spec registration
	"github.com/serverwatch/availability-watch/internal/config"
	"github.com/serverwatch/availability-watch/internal/domain"
	"github.com/serverwatch/availability-watch/internal/http/handlers"
	"github.com/serverwatch/availability-watch/internal/http/middleware"
	"github.com/serverwatch/availability-watch/internal/phone"
	"github.com/serverwatch/availability-watch/internal/repo"
	"github.com/serverwatch/availability-watch/internal/services"
	"github.com/serverwatch/availability-watch/internal/telemetry"
	"github.com/serverwatch/availability-watch/internal/web"
)

// requestRepoShim adapts the repository free functions to the
// services.RequestRepo interface expected by the pipelines.
type requestRepoShim struct{}

func (requestRepoShim) HasPendingRequest(ctx context.Context, db *gorm.DB, reference, mail string) (bool, error) {
	return repo.HasPendingRequest(ctx, db, reference, mail)
}

func (requestRepoShim) CreateRequest(ctx context.Context, db *gorm.DB, r *domain.AvailabilityRequest) error {
	return repo.CreateRequest(ctx, db, r)
}

func (requestRepoShim) GetRequestByToken(ctx context.Context, db *gorm.DB, token string) (*domain.AvailabilityRequest, error) {
	return repo.GetRequestByToken(ctx, db, token)
}

func (requestRepoShim) UpdateRequestState(ctx context.Context, db *gorm.DB, id string, state domain.State) error {
	return repo.UpdateRequestState(ctx, db, id, state)
}

func (requestRepoShim) UpdateRequestToken(ctx context.Context, db *gorm.DB, id, token string) error {
	return repo.UpdateRequestToken(ctx, db, id, token)
}

func (requestRepoShim) RequestStats(ctx context.Context, db *gorm.DB) (domain.Statistics, error) {
	return repo.RequestStats(ctx, db)
}

// serverRepoShim adapts the server catalog functions to services.ServerRepo.
type serverRepoShim struct{}

func (serverRepoShim) ListServersByFamily(ctx context.Context, db *gorm.DB, family string) ([]domain.Server, error) {
	return repo.ListServersByFamily(ctx, db, family)
}

func (serverRepoShim) ListReferences(ctx context.Context, db *gorm.DB) ([]string, error) {
	return repo.ListReferences(ctx, db)
}

// Deps carries the outbound adapters used by the pipelines.
type Deps struct {
	Phones   services.PhoneNormalizer
	Verifier services.HumanVerifier
	Catalog  services.CatalogFetcher
	Events   telemetry.Emitter
}

// RegisterRoutes attaches all middleware, views and HTTP endpoints to the
// given Gin engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Compression
//  8. CORS and Security headers
//
// The rate limiter only guards the routes that reach upstream services
// (submission and reactivation).
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Api-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (64 KiB; the form is a handful of short fields)
	r.Use(limitBody(64 << 10))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression (Prometheus negotiates its own)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even without an Origin header (simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		NoStore:               false,
		EnablePolicy:          true,
		ContentSecurityPolicy: middleware.DefaultFormCSP,
	}))

	// Views
	r.SetHTMLTemplate(web.MustTemplates())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/adapters
	requests := requestRepoShim{}
	subSvc := services.NewSubmissionService(db, requests, deps.Phones, deps.Verifier, deps.Catalog, deps.Events)
	reSvc := services.NewReactivationService(db, requests, deps.Events)
	resSvc := services.NewResourceService(db, serverRepoShim{}, requests)

	h := handlers.New(subSvc, reSvc, resSvc, handlers.PageOptions{
		CaptchaProvider:  cfg.Captcha.Provider,
		RecaptchaSiteKey: cfg.Captcha.RecaptchaKey,
		Countries:        phone.Countries(),
	})

	// Browser routes
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.GET("/", h.Index)
	r.POST("/", rl.Handler(), h.Submit)
	r.GET("/request/reactivate/:token", rl.Handler(), h.Reactivate)

	// JSON API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/resources", h.Resources)
	}
}

// limitBody returns a Gin middleware that caps the request body size to
// maxBytes using http.MaxBytesReader. Oversized bodies fail to bind.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
