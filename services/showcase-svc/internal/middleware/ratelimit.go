package middleware

import (
	"net/http"
	"strconv"
	"time"

	"resonance/pkg/apperror"
	"resonance/pkg/logger"
	"resonance/pkg/ratelimit"
)

// RateLimitConfig конфигурация rate limiting
type RateLimitConfig struct {
	Limiter      ratelimit.Limiter
	KeyExtractor ratelimit.KeyExtractor
	ExcludePaths map[string]bool
}

// RateLimit создаёт middleware, ограничивающий частоту запросов.
// Недоступность бэкенда лимитера пропускает запрос (fail open): витрина
// важнее строгости лимита.
func RateLimit(cfg *RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = ratelimit.ClientIPKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.ExcludePaths != nil && cfg.ExcludePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyExtractor(r)

			allowed, err := cfg.Limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Log.Warn("Rate limit check failed", "error", err.Error(), "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				info, infoErr := cfg.Limiter.GetInfo(r.Context(), key)
				if infoErr != nil {
					info = &ratelimit.LimitInfo{ResetAt: time.Now().Add(time.Minute)}
				}

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", info.ResetAt.Format(time.RFC3339))

				logger.Log.Warn("Rate limit exceeded", "key", key, "limit", info.Limit)
				writeError(w, apperror.New(apperror.CodeRateLimited, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
