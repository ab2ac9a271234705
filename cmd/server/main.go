// Command server runs the availability watch web backend: the watch form,
// the reactivation links and the JSON read model.
package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/serverwatch/availability-watch/internal/config"
	httpapi "github.com/serverwatch/availability-watch/internal/http"
	"github.com/serverwatch/availability-watch/internal/observability"
	"github.com/serverwatch/availability-watch/internal/phone"
	"github.com/serverwatch/availability-watch/internal/provider"
	"github.com/serverwatch/availability-watch/internal/repo"
	"github.com/serverwatch/availability-watch/internal/sysutil"
	"github.com/serverwatch/availability-watch/internal/telemetry"
	"github.com/serverwatch/availability-watch/internal/verification"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	appVersion := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, appVersion)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open store")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate store")
	}
	seedServers(ctx, db, cfg.ServersPath)

	cache, closeCache := catalogCache(ctx, cfg.Provider)
	defer closeCache()

	verifier, err := verification.New(cfg.Captcha)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Captcha.Provider).Msg("captcha setup failed")
	}
	events := telemetry.New(cfg.Telemetry)

	r := gin.New()
	httpapi.RegisterRoutes(r, db, httpapi.Deps{
		Phones:   phone.Normalizer{},
		Verifier: verifier,
		Catalog:  provider.NewClient(cfg.Provider, cache),
		Events:   events,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", appVersion).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if ie, ok := events.(*telemetry.InsightsEmitter); ok {
		if err := ie.Wait(sctx); err != nil {
			log.Warn().Err(err).Msg("telemetry events still in flight")
		}
	}
	if err := shutdownOTel(sctx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}

// seedServers upserts the watchable server catalog. A missing file is not
// fatal; the catalog may already be in the store.
func seedServers(ctx context.Context, db *gorm.DB, path string) {
	if path == "" {
		return
	}
	servers, err := repo.LoadServersFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", path).Msg("servers file not found, skipping seed")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load servers file")
	}
	if err := repo.UpsertServers(ctx, db, servers); err != nil {
		log.Fatal().Err(err).Msg("seed servers")
	}
	log.Info().Int("count", len(servers)).Msg("server catalog seeded")
}

// catalogCache returns Redis when REDIS_URL is set and reachable, the
// in-process cache otherwise.
func catalogCache(ctx context.Context, cfg config.ProviderConfig) (provider.Cache, func()) {
	if cfg.RedisURL == "" {
		return provider.NewMemoryCache(), func() {}
	}
	rc, err := provider.NewRedisCache(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis cache setup failed")
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pctx); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, using in-memory catalog cache")
		_ = rc.Close()
		return provider.NewMemoryCache(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}
