package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherus/otherus/pkg/redis"
)

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	t.Run("bare host gets default port", func(t *testing.T) {
		t.Parallel()
		opts, err := redis.Config{URL: "localhost"}.Options()
		require.NoError(t, err)
		assert.Equal(t, "localhost:6379", opts.Addr)
	})

	t.Run("host with port is kept", func(t *testing.T) {
		t.Parallel()
		opts, err := redis.Config{URL: "cache:6380"}.Options()
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
	})

	t.Run("url with db and credentials override", func(t *testing.T) {
		t.Parallel()
		opts, err := redis.Config{
			URL:      "redis://:old@cache:6379/2",
			Username: "api",
			Password: "new",
		}.Options()
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, "api", opts.Username)
		assert.Equal(t, "new", opts.Password)
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Config{URL: "  "}.Options()
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("malformed url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Config{URL: "http://cache:6379"}.Options()
		assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})
}

func TestConnect(t *testing.T) {
	t.Parallel()

	t.Run("connects and passes healthcheck", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)

		client, err := redis.Connect(context.Background(), redis.Config{
			URL:            mr.Addr(),
			RetryAttempts:  1,
			ConnectTimeout: time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		assert.NoError(t, redis.Healthcheck(client)(context.Background()))
	})

	t.Run("gives up when server is unreachable", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := redis.Connect(context.Background(), redis.Config{
			URL:            addr,
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})

	t.Run("healthcheck reports failure", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)

		client, err := redis.Connect(context.Background(), redis.Config{URL: mr.Addr(), RetryAttempts: 1})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		mr.Close()
		assert.ErrorIs(t, redis.Healthcheck(client)(context.Background()), redis.ErrHealthcheckFailed)
	})
}
