package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := &Client{
		Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not-a-url://")
	assert.Error(t, err)

	_, err = Open("not-a-url://")
	assert.Error(t, err)
}

func TestOpen_UnreachableDegrades(t *testing.T) {
	client, err := Open("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
}

func TestClient_SetGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key1", []byte("value1"), time.Hour))

	val, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", string(val))
}

func TestClient_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)

	_, err := client.Get(context.Background(), "test:nonexistent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClient_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = client.Set(ctx, "test:key1", []byte("value1"), time.Hour)
	_ = client.Set(ctx, "test:key2", []byte("value2"), time.Hour)

	require.NoError(t, client.Delete(ctx, "test:key1"))
	require.NoError(t, client.Delete(ctx))

	_, err := client.Get(ctx, "test:key1")
	assert.ErrorIs(t, err, ErrMiss)

	val, err := client.Get(ctx, "test:key2")
	require.NoError(t, err)
	assert.Equal(t, "value2", string(val))
}

func TestClient_DeletePattern(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = client.Set(ctx, "regions:all", []byte("data1"), time.Hour)
	_ = client.Set(ctx, "regions:1", []byte("data2"), time.Hour)
	_ = client.Set(ctx, "regions:2", []byte("data3"), time.Hour)
	_ = client.Set(ctx, "areas:all", []byte("data4"), time.Hour)

	deleted, err := client.DeletePattern(ctx, "regions:*")
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	exists, err := client.Exists(ctx, "regions:all")
	require.NoError(t, err)
	assert.False(t, exists)

	val, err := client.Get(ctx, "areas:all")
	require.NoError(t, err)
	assert.Equal(t, "data4", string(val))
}

func TestClient_DeletePattern_ManyPages(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 350; i++ {
		_ = client.Set(ctx, fmt.Sprintf("outlets:rep:1:g0.0:%d", i), []byte("x"), time.Hour)
	}
	_ = client.Set(ctx, "outlets:rep:2:g0.0:1", []byte("x"), time.Hour)

	deleted, err := client.DeletePattern(ctx, "outlets:rep:1:*")
	require.NoError(t, err)
	assert.Equal(t, 350, deleted)

	exists, _ := client.Exists(ctx, "outlets:rep:2:g0.0:1")
	assert.True(t, exists)
}

func TestClient_ClearAndIncr(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	n, err := client.Incr(ctx, "gen:outlets")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.Incr(ctx, "gen:outlets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, client.Clear(ctx))

	_, err = client.Get(ctx, "gen:outlets")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClient_TTL(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = client.Set(ctx, "test:ttl", []byte("value"), 10*time.Second)

	ttl, err := client.TTL(ctx, "test:ttl")
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), 9.0)
	assert.LessOrEqual(t, ttl.Seconds(), 10.0)
}
