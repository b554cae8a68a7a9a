package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewRevocationStore(rdb, time.Hour, Deadline(time.Second))
	ctx := context.Background()

	at, err := store.RevokedAfter(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	when := time.Date(2024, 6, 1, 8, 30, 15, 250*int(time.Millisecond), time.UTC)
	require.NoError(t, store.Revoke(ctx, "u1", when))

	at, err = store.RevokedAfter(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, when.UnixMilli(), at.UnixMilli(), "stored at millisecond precision")
	assert.Equal(t, time.Hour, mr.TTL("session:revoked_after:u1"))

	other, err := store.RevokedAfter(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.IsZero())

	mr.FastForward(2 * time.Hour)
	at, err = store.RevokedAfter(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, at.IsZero(), "marker expires with the ttl")
}

func TestRevocationStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedisClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRevocationStore(rdb, time.Hour, Deadline(time.Second))
	mr.Close()

	_, err := store.RevokedAfter(context.Background(), "u1")
	assert.Error(t, err)
}
