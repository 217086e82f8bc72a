package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaocr/internal/response"
)

func TestMemoryIdempotentLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, time.Minute)
	defer m.Close()

	for _, resp := range []*response.Response{
		{Success: true, RawText: "Location\nDelhi"},
		response.InvalidScreenshot(),
	} {
		key := fmt.Sprintf("fp-%s", resp.ErrorCode)
		m.Set(ctx, key, resp)

		first, ok := m.Get(ctx, key)
		require.True(t, ok)
		second, ok := m.Get(ctx, key)
		require.True(t, ok)

		a, _ := json.Marshal(first)
		b, _ := json.Marshal(second)
		assert.Equal(t, a, b)
	}
}

func TestMemoryMiss(t *testing.T) {
	m := NewMemory(10, time.Minute)
	defer m.Close()

	_, ok := m.Get(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 50*time.Millisecond)
	defer m.Close()

	m.Set(ctx, "k", &response.Response{Success: true})
	_, ok := m.Get(ctx, "k")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := m.Get(ctx, "k")
		return !ok
	}, time.Second, 20*time.Millisecond)
}

func TestMemoryCapacity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Minute)
	defer m.Close()

	m.Set(ctx, "a", &response.Response{})
	m.Set(ctx, "b", &response.Response{})
	m.Set(ctx, "c", &response.Response{})

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryDefaults(t *testing.T) {
	m := NewMemory(0, 0)
	defer m.Close()

	m.Set(context.Background(), "k", &response.Response{})
	assert.Equal(t, 1, m.Len())
}
