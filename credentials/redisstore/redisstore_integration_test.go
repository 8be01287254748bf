//go:build integration

package redisstore_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/credentials/redisstore"
	"github.com/jrsteele09/agent-console/credentials/storetest"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := startRedis(t)

	storetest.RunContract(t, func(t *testing.T) credentials.Store {
		require.NoError(t, client.FlushAll(context.Background()).Err())
		return redisstore.New(client, "console-test")
	})
}

func TestRedisStore_PartialKeysLoadAbsent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	client := startRedis(t)
	store := redisstore.New(client, "console-test")

	require.NoError(t, client.Set(context.Background(), "console-test:access_token", "a", 0).Err())
	_, ok := store.Load()
	require.False(t, ok)
}
