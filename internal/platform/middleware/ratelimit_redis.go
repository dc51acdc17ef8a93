package middleware

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKeyPrefix = "ehr-admin:ratelimit:"

// RedisLimiter shares buckets across replicas through redis (GCRA). When
// redis is unreachable it falls back to a local MemoryLimiter.
type RedisLimiter struct {
	limiter  *redis_rate.Limiter
	limit    redis_rate.Limit
	fallback *MemoryLimiter
	logger   zerolog.Logger
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisLimiter(rdb redis.UniversalClient, cfg RateLimitConfig, logger zerolog.Logger) *RedisLimiter {
	return &RedisLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		limit:    redisLimit(cfg),
		fallback: NewMemoryLimiter(cfg),
		logger:   logger.With().Str("component", "ratelimit").Logger(),
	}
}

// redisLimit converts a per-second rate into a redis_rate limit. Fractional
// rates are expressed per minute.
func redisLimit(cfg RateLimitConfig) redis_rate.Limit {
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	if cfg.RequestsPerSecond >= 1 {
		return redis_rate.Limit{Rate: int(cfg.RequestsPerSecond), Burst: burst, Period: time.Second}
	}
	perMinute := int(math.Max(1, math.Round(cfg.RequestsPerSecond*60)))
	return redis_rate.Limit{Rate: perMinute, Burst: burst, Period: time.Minute}
}

func (l *RedisLimiter) Backend() string { return "redis" }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.limiter.Allow(ctx, redisKeyPrefix+key, l.limit)
	if err != nil {
		l.logger.Warn().Err(err).Msg("redis rate limiter unavailable, using local buckets")
		return l.fallback.Allow(ctx, key)
	}
	return Decision{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

