package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewLimiter(rdb, max, window), m
}

func TestAllowWithinWindow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	require.Equal(t, 3, limiter.Remaining(ctx, 1, "conv-a"))

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow(ctx, 1, "conv-a"), "call %d should be allowed", i+1)
		require.Equal(t, 3-(i+1), limiter.Remaining(ctx, 1, "conv-a"))
	}

	require.False(t, limiter.Allow(ctx, 1, "conv-a"))
	require.Equal(t, 0, limiter.Remaining(ctx, 1, "conv-a"))
}

func TestWindowExpires(t *testing.T) {
	limiter, m := newTestLimiter(t, 2, time.Minute)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.False(t, limiter.Allow(ctx, 1, "conv-a"))

	// Счетчик истекает вместе с окном и создается заново
	m.FastForward(61 * time.Second)

	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.Equal(t, 1, limiter.Remaining(ctx, 1, "conv-a"))
}

func TestKeysAreScopedPerUserAndConversation(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.False(t, limiter.Allow(ctx, 1, "conv-a"))

	// Другой пользователь и другая беседа не делят счетчик
	require.True(t, limiter.Allow(ctx, 2, "conv-a"))
	require.True(t, limiter.Allow(ctx, 1, "conv-b"))
}

func TestFailOpenWhenStoreDown(t *testing.T) {
	limiter, m := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	m.Close()

	// Доступность важнее строгого лимита
	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.True(t, limiter.Allow(ctx, 1, "conv-a"))
	require.Equal(t, 1, limiter.Remaining(ctx, 1, "conv-a"))
}
