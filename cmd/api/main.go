package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizzeria-backend/config"
	"pizzeria-backend/internal/delivery/http/middleware"
	v1 "pizzeria-backend/internal/delivery/http/v1"
	"pizzeria-backend/internal/domain"
	"pizzeria-backend/internal/infrastructure/cache"
	"pizzeria-backend/internal/repository/file"
	"pizzeria-backend/internal/repository/postgres"
	r2repo "pizzeria-backend/internal/repository/r2"
	"pizzeria-backend/internal/usecase"
	pkgcache "pizzeria-backend/pkg/cache"
	"pizzeria-backend/pkg/logger"
	"pizzeria-backend/pkg/storage"
	"pizzeria-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/redis/go-redis/v9"
)

const serviceName = "pizzeria-tariff"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Zone source
	source, closeSource, err := newZoneSource(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("source", cfg.ZoneSource).Msg("Failed to initialize zone source")
	}
	defer closeSource()

	// Cache (one store per namespace so invalidation stays scoped)
	validationStore, tariffStore, closeCache := newCacheStores(cfg)
	defer closeCache()

	tariffUC, err := usecase.NewTariffUsecase(ctx, source, validationStore, tariffStore, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load zone table")
	}

	mux := v1.NewRouter(tariffUC)

	clientIPs, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid TRUSTED_PROXIES")
	}
	rateLimiter := middleware.NewRateLimiterFromConfig(ctx, cfg, clientIPs)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(clientIPs)(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart(serviceName, tariffUC.Info().Version, cfg.Port)

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop(serviceName)
}

func newZoneSource(ctx context.Context, cfg *config.Config) (domain.ZoneSource, func(), error) {
	noop := func() {}

	switch cfg.ZoneSource {
	case config.ZoneSourcePostgres:
		if cfg.DBAutoMigrate {
			if err := postgres.Migrate(cfg.DBUrl); err != nil {
				return nil, noop, err
			}
			logger.Info().Msg("Database migrations applied")
		}
		pool, err := postgres.NewPgxPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		logger.Info().Msg("Successfully connected to PostgreSQL via pgx")
		return postgres.NewZoneRepository(pool, cfg.Pickup()), pool.Close, nil

	case config.ZoneSourceR2:
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2Timeout,
		)
		if err != nil {
			return nil, noop, err
		}
		return r2repo.NewZoneSource(r2Storage, cfg.ZoneTableObjectKey, cfg.Pickup()), noop, nil

	default:
		return file.NewZoneSource(cfg.ZoneTableFile, cfg.Pickup()), noop, nil
	}
}

func newCacheStores(cfg *config.Config) (validation, tariff pkgcache.CacheService, closeFn func()) {
	if cfg.CacheBackend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis cache backend")
		return cache.NewRedisCache(client, "tariff:"+usecase.NamespaceValidation, cfg.CacheMaxEntries),
			cache.NewRedisCache(client, "tariff:"+usecase.NamespaceTariff, cfg.CacheMaxEntries),
			func() { _ = client.Close() }
	}

	return cache.NewMemoryCache(cfg.CacheMaxEntries),
		cache.NewMemoryCache(cfg.CacheMaxEntries),
		func() {}
}
