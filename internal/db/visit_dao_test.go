package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mvc-server/internal/config"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNewRedisClientFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestVisitDao(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	dao := NewVisitDao(client, "app")

	n, err := dao.Count(ctx, "Ann")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 0; i < 3; i++ {
		_, err = dao.Record(ctx, "Ann")
		require.NoError(t, err)
	}
	n, err = dao.Record(ctx, "Bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = dao.Count(ctx, "Ann")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.True(t, mr.Exists("app:rank"))

	top, err := dao.Top(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []Visit{{"Ann", 3}, {"Bob", 1}}, top)

	removed, err := dao.Remove(ctx, "Bob")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = dao.Remove(ctx, "Bob")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestVisitRankKeyDefault(t *testing.T) {
	assert.Equal(t, "visits:rank", VisitRankKey(""))
	assert.Equal(t, "x:rank", VisitRankKey("x"))
}

func TestPing(t *testing.T) {
	mr, client := newTestClient(t)
	require.NoError(t, Ping(context.Background(), client))

	mr.SetError("LOADING")
	assert.Error(t, Ping(context.Background(), client))
}
