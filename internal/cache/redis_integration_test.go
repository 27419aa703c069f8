//go:build integration

package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("CI") == "" && !isDockerAvailable() {
		t.Skip("Docker not available")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisClient_RoundTrip(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	c, err := NewRedisClient(RedisConfig{Addr: addr, PoolSize: 2})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, Key("catalog", "q1"), []byte(`[]`), time.Minute))
	require.NoError(t, c.Set(ctx, Key("catalog", "q2"), []byte(`[{}]`), time.Minute))

	got, err := c.Get(ctx, Key("catalog", "q1"))
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)

	require.NoError(t, c.DeleteByPrefix(ctx, "catalog:"))
	_, err = c.Get(ctx, Key("catalog", "q2"))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisClient_PingFailure(t *testing.T) {
	_, err := NewRedisClient(RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func isDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.Client().Ping(ctx)
	return err == nil
}
