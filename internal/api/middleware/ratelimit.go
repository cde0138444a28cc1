package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// rateLimitPrefix namespaces limiter keys in a shared store.
const rateLimitPrefix = "plinth:ratelimit"

// RateLimitConfig configures the request rate limiter.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Period.
	Requests int64
	// Period is a duration string (e.g., "1m", "1h", "24h").
	Period string
	// Redis shares counters between replicas when set; otherwise counters
	// live in process memory.
	Redis redis.UniversalClient
}

// NewRateLimiter creates a Gin middleware for rate limiting keyed by client IP.
func NewRateLimiter(cfg RateLimitConfig, logger zerolog.Logger) (gin.HandlerFunc, error) {
	duration, err := time.ParseDuration(cfg.Period)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit period %q: %w", cfg.Period, err)
	}
	if cfg.Requests <= 0 {
		return nil, fmt.Errorf("invalid rate limit requests %d", cfg.Requests)
	}

	rate := limiter.Rate{
		Period: duration,
		Limit:  cfg.Requests,
	}

	var store limiter.Store
	if cfg.Redis != nil {
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{
			Prefix:   rateLimitPrefix,
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          rateLimitPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
	}

	log := logger.With().Str("component", "ratelimit").Logger()
	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierr.Fail(apierr.CodeRateLimited, "rate limit exceeded", nil))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open on store errors.
			log.Error().Err(err).Msg("rate limiter store error")
			c.Next()
		}),
	), nil
}
