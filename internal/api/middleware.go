package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/api/handlers"
	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
	"github.com/bounswe/bounswe2025group8-sub001/internal/entity"
	"github.com/bounswe/bounswe2025group8-sub001/internal/infrastructure/ratelimit"
)

type TokenValidator interface {
	ValidateAccessToken(token string) (*entity.JWTClaims, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error)
}

// RequestLogger кладет логгер с request_id в контекст и пишет строку на каждый запрос
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
			ctx := reqLog.WithContext(r.Context())

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLog.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// Authenticate разбирает Bearer токен, если он есть. Без заголовка запрос
// идет дальше анонимно, с плохим токеном - 401.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				handlers.WriteError(w, r, entity.ErrInvalidToken)
				return
			}
			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				handlers.WriteError(w, r, err)
				return
			}

			ctx := handlers.WithUserID(r.Context(), claims.UserID)
			ctx = zerolog.Ctx(ctx).With().Int("user_id", claims.UserID).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.UserIDFromContext(r.Context()) == 0 {
			handlers.WriteError(w, r, entity.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit ограничивает частоту запросов пользователя. Если Redis недоступен,
// запрос пропускается.
func RateLimit(limiter RateLimiter, cfg config.RateLimitConfig, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + strconv.Itoa(handlers.UserIDFromContext(r.Context()))
			res, err := limiter.Allow(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if !res.Allowed {
				retry := max(1, int(time.Until(res.ResetAt).Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"status":"error","code":"rate_limited","message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
