package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"visaocr/internal/logger"
	"visaocr/internal/metrics"
	"visaocr/internal/response"
)

const (
	tierRedis      = "redis"
	redisKeyPrefix = "visaocr:result:"
)

// Redis shares cached responses between service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		log:    logger.WithComponent("cache.redis"),
	}
}

// DialRedis parses a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	const op = "cache.DialRedis"

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid redis url: %w", op, err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}
	return NewRedis(client, ttl), nil
}

// Get implements Store. Transport and decode errors are logged and reported as misses.
func (r *Redis) Get(ctx context.Context, key string) (*response.Response, bool) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("Redis cache read failed")
		}
		metrics.RecordCacheMiss(tierRedis)
		return nil, false
	}

	var resp response.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		metrics.RecordCacheMiss(tierRedis)
		return nil, false
	}
	metrics.RecordCacheHit(tierRedis)
	return &resp, true
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key string, resp *response.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Redis cache write failed")
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
