package shared_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/simplepos/simplepos/internal/shared"
	_ "github.com/simplepos/simplepos/testing"
)

func newIdemStore(t *testing.T) *shared.IdempotencyStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewIdempotencyStore(client, time.Minute)
}

func TestIdempotencyCheckAndInsert(t *testing.T) {
	store := newIdemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "cart-1", "sale"))
	require.ErrorIs(t, store.CheckAndInsert(ctx, "cart-1", "sale"), shared.ErrIdempotencyConflict)

	// Same key under a different module is independent.
	require.NoError(t, store.CheckAndInsert(ctx, "cart-1", "import"))
}

func TestIdempotencyDeleteReleasesKey(t *testing.T) {
	store := newIdemStore(t)
	ctx := context.Background()

	require.NoError(t, store.CheckAndInsert(ctx, "cart-1", "sale"))
	require.NoError(t, store.Delete(ctx, "sale", "cart-1"))
	require.NoError(t, store.CheckAndInsert(ctx, "cart-1", "sale"))
}

func TestIdempotencyValidation(t *testing.T) {
	store := newIdemStore(t)
	ctx := context.Background()

	require.Error(t, store.CheckAndInsert(ctx, "", "sale"))
	require.Error(t, store.CheckAndInsert(ctx, "cart-1", ""))
}
