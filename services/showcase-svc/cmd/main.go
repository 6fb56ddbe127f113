package main

import (
	"context"
	"net/http"
	"time"

	"resonance/pkg/cache"
	"resonance/pkg/config"
	"resonance/pkg/logger"
	"resonance/pkg/metrics"
	"resonance/pkg/ratelimit"
	"resonance/pkg/server"
	"resonance/pkg/telemetry"
	"resonance/services/showcase-svc/internal/export"
	"resonance/services/showcase-svc/internal/handlers"
	"resonance/services/showcase-svc/internal/middleware"
	"resonance/services/showcase-svc/internal/remote"
	"resonance/services/showcase-svc/internal/session"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.Init("error")
		logger.Fatal("Failed to load config", "error", err)
	}

	// Инициализируем логгер
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	logger.Log.Info("Starting Showcase Service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	// Клиент удалённого решателя
	solverClient := remote.NewClient(cfg.Services.Resonance)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := solverClient.Ping(pingCtx); err != nil {
		// Решатель опционален: без него работает политика fallback
		logger.Log.Warn("Remote solver unreachable at startup",
			"url", cfg.Services.Resonance.BaseURL(),
			"error", err,
		)
	} else {
		logger.Log.Info("Remote solver reachable", "url", cfg.Services.Resonance.BaseURL())
	}
	pingCancel()

	// Кэш результатов решателя
	var solveCache *cache.SolveCache
	var cacheBackend cache.Cache
	if cfg.Cache.Enabled {
		cacheBackend, err = cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without it", "error", err)
			cacheBackend = nil
		} else {
			solveCache = cache.NewSolveCache(cacheBackend, cfg.Cache.DefaultTTL)
			logger.Log.Info("Solve cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	// Менеджер сессий и экспортёр
	sessionManager := session.NewManager(cfg.Showcase, solverClient, solveCache)
	exporter := export.New(cfg.Export)

	// HTTP routes
	mux := http.NewServeMux()
	handlers.New(sessionManager, exporter).Register(mux)

	if cfg.Metrics.Enabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	// Rate limiter общий для сервера и middleware
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit))
		if err != nil {
			logger.Log.Warn("Failed to create rate limiter, continuing without it", "error", err)
		}
	}

	var handler http.Handler = mux
	if limiter != nil {
		handler = middleware.RateLimit(&middleware.RateLimitConfig{
			Limiter: limiter,
			ExcludePaths: map[string]bool{
				"/health":  true,
				"/ready":   true,
				"/metrics": true,
			},
		})(handler)
	}
	if cfg.HTTP.CORS.Enabled {
		handler = middleware.CORS(cfg.HTTP.CORS)(handler)
	}
	if cfg.Tracing.Enabled {
		handler = telemetry.HTTPMiddleware(handler)
	}
	handler = middleware.Metrics(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	srv := server.NewWithOptions(cfg, handler, &server.ServerOptions{
		RateLimiter: limiter,
	})
	srv.OnShutdown(func() error {
		sessionManager.Close()
		return nil
	})
	if cacheBackend != nil {
		srv.OnShutdown(func() error {
			statsCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if stats, err := cacheBackend.Stats(statsCtx); err == nil {
				logger.Log.Info("Solve cache stats",
					"keys", stats.TotalKeys,
					"hit_rate", stats.HitRate,
				)
			}
			return cacheBackend.Close()
		})
	}

	if err := srv.Run(); err != nil {
		logger.Fatal("Server failed", "error", err)
	}
}
