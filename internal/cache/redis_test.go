package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaocr/internal/response"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	r := NewRedis(client, ttl)
	t.Cleanup(func() { _ = r.Close() })
	return r, srv
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r, srv := newTestRedis(t, time.Hour)

	r.Set(ctx, "fp", response.InvalidScreenshot())
	assert.True(t, srv.Exists(redisKeyPrefix+"fp"))

	got, ok := r.Get(ctx, "fp")
	require.True(t, ok)
	assert.Equal(t, response.InvalidScreenshot(), got)
}

func TestRedisExpiry(t *testing.T) {
	ctx := context.Background()
	r, srv := newTestRedis(t, time.Minute)

	r.Set(ctx, "fp", &response.Response{Success: true})
	srv.FastForward(2 * time.Minute)

	_, ok := r.Get(ctx, "fp")
	assert.False(t, ok)
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	r, srv := newTestRedis(t, time.Hour)
	require.NoError(t, srv.Set(redisKeyPrefix+"fp", "{not json"))

	_, ok := r.Get(context.Background(), "fp")
	assert.False(t, ok)
}

func TestDialRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	r, err := DialRedis(context.Background(), "redis://"+srv.Addr(), time.Hour)
	require.NoError(t, err)
	defer r.Close()

	_, err = DialRedis(context.Background(), "::not a url", time.Hour)
	assert.Error(t, err)
}

func TestTieredBackfillsLocal(t *testing.T) {
	ctx := context.Background()
	shared, _ := newTestRedis(t, time.Hour)
	local := NewMemory(10, time.Minute)
	defer local.Close()

	resp := &response.Response{Success: true, RawText: "x"}
	shared.Set(ctx, "fp", resp)

	tiered := NewTiered(local, shared)
	got, ok := tiered.Get(ctx, "fp")
	require.True(t, ok)
	assert.Equal(t, resp, got)

	_, ok = local.Get(ctx, "fp")
	assert.True(t, ok)
}

func TestTieredSetWritesBoth(t *testing.T) {
	ctx := context.Background()
	shared, srv := newTestRedis(t, time.Hour)
	local := NewMemory(10, time.Minute)
	defer local.Close()

	NewTiered(local, shared).Set(ctx, "fp", response.InvalidScreenshot())

	_, ok := local.Get(ctx, "fp")
	assert.True(t, ok)
	assert.True(t, srv.Exists(redisKeyPrefix+"fp"))
}
