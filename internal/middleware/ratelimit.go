package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/cache"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// RateLimiter is the token bucket store.
type RateLimiter interface {
	CheckPrincipalRateLimit(ctx context.Context, key string, limit model.RateLimitConfig) (*cache.RateLimitResult, error)
	CheckLoginRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter

	APIEnabled bool

	LoginEnabled bool
	LoginRPS     int
	LoginBurst   int
}

// RateLimitAPI limits authenticated requests per principal according to
// its tier. Must be applied after Authenticate.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if !cfg.APIEnabled || principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			limit := principal.GetRateLimitConfig()
			if limit.RequestsPerMinute == 0 {
				next.ServeHTTP(w, r)
				return
			}

			key := principal.RateLimitKey()
			result, err := cfg.Limiter.CheckPrincipalRateLimit(r.Context(), key, limit)
			if err != nil {
				cfg.Logger.Error("rate_limit_check_failed",
					slog.String("error", err.Error()),
					slog.String("key", key),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, limit.RequestsPerMinute, result.Remaining, result.ResetAt)
			if !result.Allowed {
				cfg.Logger.Warn("rate_limit_exceeded",
					slog.String("key", key),
					slog.String("type", "api"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitLogin limits login attempts per client IP.
func RateLimitLogin(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.LoginEnabled {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			result, err := cfg.Limiter.CheckLoginRateLimit(r.Context(), ip, cfg.LoginRPS, cfg.LoginBurst)
			if err != nil {
				cfg.Logger.Error("rate_limit_check_failed",
					slog.String("error", err.Error()),
					slog.String("type", "login"),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.Logger.Warn("rate_limit_exceeded",
					slog.String("type", "login"),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int64("retry_after_seconds", int64(result.RetryAfter.Seconds())),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeRateLimitError(w, result.RetryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

func writeRateLimitError(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", seconds))
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the connection address without its port.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
