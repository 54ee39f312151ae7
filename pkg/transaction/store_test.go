package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestRedisStorePutListRemove(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	first := Record{ID: "tx-1", CreatedAt: time.Now().Add(-time.Hour)}
	second := Record{ID: "tx-2", CreatedAt: time.Now()}
	require.NoError(t, store.Put(ctx, second, time.Hour))
	require.NoError(t, store.Put(ctx, first, time.Hour))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tx-1", records[0].ID)
	assert.Equal(t, "tx-2", records[1].ID)

	require.NoError(t, store.Remove(ctx, "tx-1"))
	records, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tx-2", records[0].ID)
}

func TestRedisStoreDropsExpiredRecords(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Record{ID: "tx-ttl", CreatedAt: time.Now()}, time.Minute))
	mr.FastForward(2 * time.Minute)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The dangling index entry was dropped too.
	if members, err := mr.Members(recordIndexKey); err == nil {
		assert.NotContains(t, members, "tx-ttl")
	}
}

func TestRedisStoreDropsCorruptRecords(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Record{ID: "tx-ok", CreatedAt: time.Now()}, time.Hour))
	mr.Set(recordKeyPrefix+"tx-bad", "{not json")
	mr.SAdd(recordIndexKey, "tx-bad")

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tx-ok", records[0].ID)
}
