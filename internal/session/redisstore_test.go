package session_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/waabox/constitutiongpt/internal/session"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return session.NewRedisStore(rdb, "cgpt:"), mr
}

func TestRedisStore_EmptyLoadsZeroPair(t *testing.T) {
	store, _ := newRedisStore(t)
	p, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, p.IsZero())
}

func TestRedisStore_SaveWritesBothKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Save(ctx, session.Pair{AccessToken: "A2", RefreshToken: "R2"}))

	access, err := mr.Get("cgpt:access_token")
	require.NoError(t, err)
	require.Equal(t, "A2", access)
	refresh, err := mr.Get("cgpt:refresh_token")
	require.NoError(t, err)
	require.Equal(t, "R2", refresh)

	p, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, session.Pair{AccessToken: "A2", RefreshToken: "R2"}, p)
}

func TestRedisStore_ClearRemovesBothKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, store.Save(ctx, session.Pair{AccessToken: "A1", RefreshToken: "R1"}))

	require.NoError(t, store.Clear(ctx))
	require.False(t, mr.Exists("cgpt:access_token"))
	require.False(t, mr.Exists("cgpt:refresh_token"))
}

func TestRedisStore_LoadFailsWhenServerIsDown(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()
	_, err := store.Load(context.Background())
	require.Error(t, err)
}
