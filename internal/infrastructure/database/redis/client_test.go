package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/chemenv/internal/config"
	"github.com/turtacn/chemenv/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/chemenv/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Success(t *testing.T) {
	client, _ := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"}, logging.NewNopLogger())
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestClient_Key(t *testing.T) {
	client, _ := newTestClient(t)
	assert.Equal(t, "chemenv:env:abc", client.Key("env", "abc"))

	custom := NewClientFrom(nil, "test:", logging.NewNopLogger())
	assert.Equal(t, "test:lock", custom.Key("lock"))
}

func TestClient_Operations(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	deleted, err := client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	mr.HSet("h", "f", "v")
	hval, err := client.HGet(ctx, "h", "f").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", hval)

	_, err = mr.ZAdd("z", 1, "a")
	require.NoError(t, err)
	_, err = mr.ZAdd("z", 2, "b")
	require.NoError(t, err)
	n, err := client.ZCard(ctx, "z").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	members, err := client.ZRange(ctx, "z", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, members)
}

func TestClient_Close(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	ctx := context.Background()
	assert.Equal(t, ErrClientClosed, client.Get(ctx, "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Set(ctx, "foo", "x", 0).Err())
	assert.Equal(t, ErrClientClosed, client.Del(ctx, "foo").Err())
	assert.Equal(t, ErrClientClosed, client.HGet(ctx, "h", "f").Err())
	assert.Equal(t, ErrClientClosed, client.ZCard(ctx, "z").Err())
	assert.Equal(t, ErrClientClosed, client.ZRange(ctx, "z", 0, 1).Err())
	assert.Equal(t, ErrClientClosed, client.Scan(ctx, 0, "*", 10).Err())
	assert.Equal(t, ErrClientClosed, client.Ping(ctx))

	_, err := client.Underlying()
	assert.Equal(t, ErrClientClosed, err)
}

//Personal.AI order the ending
