package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_LockoutAfterMaxFails(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory(time.Minute, 3, 10*time.Minute)
	m.now = func() time.Time { return now }
	ip := HashIP("10.0.0.1")

	for i := 0; i < 2; i++ {
		blocked, _, err := m.Failure(ctx, "a@example.com", ip)
		require.NoError(t, err)
		require.False(t, blocked)
	}
	blocked, dur, err := m.Failure(ctx, "A@example.com", ip)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, 10*time.Minute, dur)

	ok, retry, err := m.Allow(ctx, "a@example.com", ip)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 10*time.Minute, retry)

	// other IP is unaffected
	ok, _, err = m.Allow(ctx, "a@example.com", HashIP("10.0.0.2"))
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(11 * time.Minute)
	ok, _, err = m.Allow(ctx, "a@example.com", ip)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemory_WindowResetsAndSuccessClears(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory(time.Minute, 2, time.Minute)
	m.now = func() time.Time { return now }
	ip := HashIP("10.0.0.1")

	blocked, _, _ := m.Failure(ctx, "a@example.com", ip)
	require.False(t, blocked)

	// stale failure no longer counts
	now = now.Add(2 * time.Minute)
	blocked, _, _ = m.Failure(ctx, "a@example.com", ip)
	require.False(t, blocked)

	require.NoError(t, m.Success(ctx, "a@example.com", ip))
	blocked, _, _ = m.Failure(ctx, "a@example.com", ip)
	require.False(t, blocked)
}
