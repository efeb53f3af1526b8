package testing

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

// StartRedis runs a throwaway redis container and returns a client connected
// to it. The container is removed when the test finishes.
func StartRedis(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "could not create new dockertest pool")
	require.NoError(t, pool.Client.Ping(), "could not ping dockertest pool")

	redisResource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "6.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	require.NoError(t, err, "run redis")
	t.Cleanup(func() {
		if err := pool.Purge(redisResource); err != nil {
			t.Logf("failed to purge redis container: %s", err)
		}
	})

	redisPort := redisResource.GetPort("6379/tcp")
	t.Logf("using redis port: [%s]", redisPort)

	rdb := redis.NewClient(&redis.Options{
		Addr: net.JoinHostPort("localhost", redisPort),
		DB:   0, // use default DB
	})
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	err = pool.Retry(func() error {
		return rdb.Ping(ctx).Err()
	})
	require.NoError(t, err, "redis not reachable")

	return ctx, rdb
}
